package email

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"testing"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	imapNo := serverReply(errors.New("Invalid credentials"))
	smtp535 := &textproto.Error{Code: 535, Msg: "5.7.8 Authentication credentials invalid"}
	smtp554 := &textproto.Error{Code: 554, Msg: "5.7.1 rejected"}
	unknownCA := &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}

	cases := []struct {
		name string
		step Step
		err  error
		want FailureKind
	}{
		{"imap login refused", StepLogin, imapNo, KindAuthentication},
		{"imap login disabled", StepLogin, client.ErrLoginDisabled, KindAuthentication},
		{"smtp auth refused", StepLogin, smtp535, KindAuthentication},
		{"wrapped smtp auth refused", StepLogin, fmt.Errorf("auth: %w", smtp535), KindAuthentication},
		{"imap select refused", StepSelect, imapNo, KindProtocol},
		{"smtp quit refused", StepQuit, smtp554, KindProtocol},
		{"no starttls", StepStartTLS, ErrStartTLSNotSupported, KindProtocol},
		{"no auth", StepLogin, ErrAuthNotSupported, KindProtocol},
		{"unknown authority on connect", StepConnect, unknownCA, KindTransport},
		{"unknown authority on starttls", StepStartTLS, unknownCA, KindTransport},
		{"hostname mismatch", StepConnect, x509.HostnameError{Host: "mail.example.com"}, KindTransport},
		{"not tls", StepConnect, tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}, KindTransport},
		{"tls alert", StepStartTLS, tls.AlertError(40), KindTransport},
		{"connection refused", StepConnect, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindUnclassified},
		{"eof", StepList, io.EOF, KindUnclassified},
		{"eof is not a server reply", StepLogin, serverReply(io.EOF), KindUnclassified},
		{"plain error at login", StepLogin, errors.New("boom"), KindUnclassified},
		{"nil", StepConnect, nil, KindUnclassified},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.step, tc.err))
		})
	}
}

func TestNewOutcome(t *testing.T) {
	passed := newOutcome(ProtocolSMTP, "Sales", time.Now(), "", nil)
	assert.True(t, passed.Passed)
	assert.Nil(t, passed.Failure)
	assert.Equal(t, "Sales", passed.Label)

	refused := &textproto.Error{Code: 535, Msg: "bad credentials"}
	failed := newOutcome(ProtocolSMTP, "Sales", time.Now(), StepLogin, refused)
	assert.False(t, failed.Passed)
	assert.Equal(t, KindAuthentication, failed.Failure.Kind)
	assert.ErrorIs(t, failed.Failure, refused)
	assert.EqualError(t, failed.Failure, "Authentication (login): 535 bad credentials")
}

func TestConsoleFinish(t *testing.T) {
	var out bytes.Buffer
	console := NewConsole(&out)

	console.finish(Outcome{Protocol: ProtocolIMAP, Label: "Support", Passed: true})
	console.finish(newOutcome(ProtocolIMAP, "Support", time.Now(), StepConnect, io.ErrUnexpectedEOF))

	assert.Contains(t, out.String(), "✅ IMAP тест PASSED для Support")
	assert.Contains(t, out.String(), "❌ IMAP: непредвиденная ошибка: *errors.errorString: unexpected EOF")
}

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "Authentication", KindAuthentication.String())
	assert.Equal(t, "TransportOrCertificate", KindTransport.String())
	assert.Equal(t, "Protocol", KindProtocol.String())
	assert.Equal(t, "Unclassified", KindUnclassified.String())
}

func TestServerReply(t *testing.T) {
	assert.Nil(t, serverReply(nil))

	var status *statusError
	assert.ErrorAs(t, serverReply(errors.New("Bad username or password")), &status)
	assert.EqualError(t, serverReply(errors.New("Bad username or password")), "Bad username or password")

	assert.Equal(t, io.EOF, serverReply(io.EOF))

	opErr := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
	assert.Equal(t, error(opErr), serverReply(opErr))
}
