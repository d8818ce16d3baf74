package settings

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config представляет конфигурацию приложения
type Config struct {
	*ini.File
	IMAP     ServerConfig
	SMTP     ServerConfig
	Timeouts TimeoutConfig
	Log      LogConfig
	Accounts []Account
}

// ServerConfig представляет адрес IMAP или SMTP сервера
type ServerConfig struct {
	Host string
	Port int
}

// Addr возвращает адрес в формате host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TimeoutConfig представляет таймауты сетевых операций
type TimeoutConfig struct {
	Connect   time.Duration // Установка TCP/TLS соединения
	Operation time.Duration // Все остальные шаги проверки, 0 - без ограничения
}

// LogConfig представляет конфигурацию логирования
type LogConfig struct {
	LogLevel        int
	File            string
	MaxSizeMB       int
	MaxArchiveFiles int
	Console         bool
}

// Account представляет проверяемый почтовый ящик
type Account struct {
	Email    string
	Password string
	Name     string
}

// accountSection - секции [Account], [Account1], [Account2]...
var accountSection = regexp.MustCompile(`^Account\d*$`)

// Load читает INI источник. Символы # и ; внутри значений не считаются
// комментарием, иначе пароли с ними обрезаются.
func Load(source any) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, source)
}

// LoadConfig загружает конфигурацию из INI файла
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	return Parse(cfg)
}

// Parse разбирает уже загруженный INI файл
func Parse(file *ini.File) (*Config, error) {
	config := &Config{
		File: file,
	}

	// Загружаем адреса серверов
	if err := config.loadServerConfig(); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации серверов: %w", err)
	}

	// Загружаем таймауты
	if err := config.loadTimeoutConfig(); err != nil {
		return nil, fmt.Errorf("ошибка загрузки таймаутов: %w", err)
	}

	// Загружаем конфигурацию логирования
	if err := config.loadLogConfig(); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации логирования: %w", err)
	}

	// Загружаем учетные записи
	if err := config.loadAccounts(); err != nil {
		return nil, fmt.Errorf("ошибка загрузки учетных записей: %w", err)
	}

	return config, nil
}

func (c *Config) loadServerConfig() error {
	imapSec := c.File.Section("IMAP")
	c.IMAP.Host = strings.TrimSpace(imapSec.Key("Host").String())
	c.IMAP.Port = imapSec.Key("Port").MustInt(993) // По умолчанию 993 для SSL

	if c.IMAP.Host == "" {
		return fmt.Errorf("не указан Host в секции [IMAP]")
	}

	smtpSec := c.File.Section("SMTP")
	c.SMTP.Host = strings.TrimSpace(smtpSec.Key("Host").String())
	c.SMTP.Port = smtpSec.Key("Port").MustInt(587) // По умолчанию 587 для STARTTLS

	// Обычно оба протокола обслуживает один и тот же сервер
	if c.SMTP.Host == "" {
		c.SMTP.Host = c.IMAP.Host
	}

	if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
		return fmt.Errorf("неверный порт IMAP: %d", c.IMAP.Port)
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("неверный порт SMTP: %d", c.SMTP.Port)
	}

	return nil
}

func (c *Config) loadTimeoutConfig() error {
	sec := c.File.Section("Timeouts")
	connectSec := sec.Key("ConnectTimeoutSec").MustInt(10)
	operationSec := sec.Key("OperationTimeoutSec").MustInt(60)

	if connectSec <= 0 {
		return fmt.Errorf("ConnectTimeoutSec должен быть больше нуля")
	}
	if operationSec < 0 {
		return fmt.Errorf("OperationTimeoutSec не может быть отрицательным")
	}

	c.Timeouts.Connect = time.Duration(connectSec) * time.Second
	c.Timeouts.Operation = time.Duration(operationSec) * time.Second

	return nil
}

func (c *Config) loadLogConfig() error {
	sec := c.File.Section("Log")
	c.Log.LogLevel = sec.Key("LogLevel").MustInt(4) // По умолчанию Info
	c.Log.File = sec.Key("File").MustString("logs/mail-tester.log")
	c.Log.MaxSizeMB = sec.Key("MaxSizeMB").MustInt(10)
	c.Log.MaxArchiveFiles = sec.Key("MaxArchiveFiles").MustInt(10)
	c.Log.Console = sec.Key("Console").MustBool(false)

	return nil
}

// loadAccounts читает секции учетных записей в порядке их следования в файле
func (c *Config) loadAccounts() error {
	c.Accounts = make([]Account, 0, 4)

	for _, sec := range c.File.Sections() {
		if !accountSection.MatchString(sec.Name()) {
			continue
		}

		email := strings.TrimSpace(sec.Key("Email").String())
		if email == "" {
			return fmt.Errorf("не указан Email в секции [%s]", sec.Name())
		}

		password, err := resolveSecret(sec)
		if err != nil {
			return fmt.Errorf("секция [%s]: %w", sec.Name(), err)
		}

		name := strings.TrimSpace(sec.Key("Name").String())
		if name == "" {
			name = email
		}

		c.Accounts = append(c.Accounts, Account{
			Email:    email,
			Password: password,
			Name:     name,
		})
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("не найдено ни одной учетной записи")
	}

	return nil
}
