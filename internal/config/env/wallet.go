package env

import (
	"errors"
	"os"
	"strconv"
	"time"

	"plinko_backend/internal/config"
)

const (
	walletBaseURLEnvName   = "WALLET_BASE_URL"
	walletTimeoutMSEnvName = "WALLET_TIMEOUT_MS"
	walletSecretEnvName    = "WALLET_SIGNATURE_SECRET"

	defaultWalletTimeout = 5 * time.Second
)

type walletConfig struct {
	baseURL string
	timeout time.Duration
	secret  string
}

func NewWalletConfig() (config.WalletConfig, error) {
	baseURL := os.Getenv(walletBaseURLEnvName)
	if len(baseURL) == 0 {
		return nil, errors.New("wallet base url not found")
	}

	secret := os.Getenv(walletSecretEnvName)
	if len(secret) == 0 {
		return nil, errors.New("wallet signature secret not found")
	}

	timeout := defaultWalletTimeout
	if raw := os.Getenv(walletTimeoutMSEnvName); len(raw) > 0 {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return nil, errors.New("invalid wallet timeout")
		}
		timeout = time.Duration(ms) * time.Millisecond
	}

	return &walletConfig{
		baseURL: baseURL,
		timeout: timeout,
		secret:  secret,
	}, nil
}

func (cfg *walletConfig) BaseURL() string {
	return cfg.baseURL
}

func (cfg *walletConfig) Timeout() time.Duration {
	return cfg.timeout
}

func (cfg *walletConfig) SignatureSecret() []byte {
	return []byte(cfg.secret)
}
