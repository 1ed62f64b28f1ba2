// Package config carrega a configuração do serviço: .env, variáveis RECON_*, arquivo YAML opcional.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Prefix das variáveis de ambiente.
const Prefix = "RECON"

// Config é a configuração do serviço de conciliação.
type Config struct {
	Port           int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	DataDir        string        `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	SettlementFile string        `yaml:"settlement_file" envconfig:"SETTLEMENT_FILE" validate:"required"`
	MerchantFile   string        `yaml:"merchant_file" envconfig:"MERCHANT_FILE" validate:"required"`
	SessionTTL     time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL" validate:"gt=0"`
	MaxSessions    int           `yaml:"max_sessions" envconfig:"MAX_SESSIONS" validate:"gt=0"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	LogLevel       string        `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	Development    bool          `yaml:"development" envconfig:"DEVELOPMENT"`
}

// Default devolve os valores usados quando nem ambiente nem arquivo definem o campo.
func Default() Config {
	return Config{
		Port:           8084,
		DataDir:        "dados",
		SettlementFile: "Fechamento.xlsx",
		MerchantFile:   "Novos_Comercios.xlsx",
		SessionTTL:     12 * time.Hour,
		MaxSessions:    256,
		MaxUploadBytes: 32 << 20,
		LogLevel:       "info",
	}
}

// SettlementPath é o caminho do fechamento padrão do repositório.
func (c Config) SettlementPath() string {
	return filepath.Join(c.DataDir, c.SettlementFile)
}

// MerchantPath é o caminho da planilha padrão de novos comércios.
func (c Config) MerchantPath() string {
	return filepath.Join(c.DataDir, c.MerchantFile)
}

// Load lê .env (sem sobrescrever o ambiente), depois RECON_*, depois o YAML de RECON_CONFIG_FILE
// para os campos ainda vazios, e por fim os padrões. O resultado é validado.
func Load() (*Config, error) {
	if _, err := LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("erro ao carregar .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("erro ao ler variáveis de ambiente: %w", err)
	}

	if path := os.Getenv(Prefix + "_CONFIG_FILE"); path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração %s: %w", path, err)
		}
		cfg = merge(cfg, *fileCfg)
	}
	cfg = merge(cfg, Default())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate confere as regras declaradas nas tags validate.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("configuração inválida: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("configuração inválida: %w", err)
	}
	return nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge preenche os campos vazios de dst com os de src.
func merge(dst, src Config) Config {
	if dst.Port == 0 {
		dst.Port = src.Port
	}
	if dst.DataDir == "" {
		dst.DataDir = src.DataDir
	}
	if dst.SettlementFile == "" {
		dst.SettlementFile = src.SettlementFile
	}
	if dst.MerchantFile == "" {
		dst.MerchantFile = src.MerchantFile
	}
	if dst.SessionTTL == 0 {
		dst.SessionTTL = src.SessionTTL
	}
	if dst.MaxSessions == 0 {
		dst.MaxSessions = src.MaxSessions
	}
	if dst.MaxUploadBytes == 0 {
		dst.MaxUploadBytes = src.MaxUploadBytes
	}
	if dst.LogLevel == "" {
		dst.LogLevel = src.LogLevel
	}
	if !dst.Development {
		dst.Development = src.Development
	}
	return dst
}

// LoadDotEnv copia as chaves do arquivo para o ambiente, sem sobrescrever as que já existem.
// Devolve false quando o arquivo não existe.
func LoadDotEnv(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(strings.TrimPrefix(parts[0], "export "))
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return true, err
			}
		}
	}
	return true, scanner.Err()
}
