package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"gopkg.in/ini.v1"
)

const keyringServiceName = "mail-tester"

// keyringGet читает секрет из системного хранилища; подменяется в тестах
var keyringGet = func(key string) (string, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка открытия keyring: %w", err)
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("секрет %q не найден в keyring: %w", key, err)
	}

	return string(item.Data), nil
}

// resolveSecret возвращает пароль учетной записи.
// Приоритет: Password, затем PasswordEnv, затем PasswordKeyring.
func resolveSecret(sec *ini.Section) (string, error) {
	if password := sec.Key("Password").String(); password != "" {
		return password, nil
	}

	if envName := strings.TrimSpace(sec.Key("PasswordEnv").String()); envName != "" {
		password, ok := os.LookupEnv(envName)
		if !ok || password == "" {
			return "", fmt.Errorf("переменная окружения %s не задана", envName)
		}
		return password, nil
	}

	if key := strings.TrimSpace(sec.Key("PasswordKeyring").String()); key != "" {
		password, err := keyringGet(key)
		if err != nil {
			return "", err
		}
		if password == "" {
			return "", fmt.Errorf("пустой секрет %q в keyring", key)
		}
		return password, nil
	}

	return "", fmt.Errorf("не указан ни Password, ни PasswordEnv, ни PasswordKeyring")
}
