package service

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"golang.org/x/crypto/ssh"

	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/pkg/utils"
)

const defaultKeyBits = 4096

var (
	ErrKeyExists   = errors.New("a key with this name already exists")
	ErrKeyNotFound = errors.New("public key not found")
)

// SSHKeyService creates and reads the keypairs installed on cluster nodes.
type SSHKeyService struct {
	dir     string
	keyBits int
	logger  *logger.Logger
}

func NewSSHKeyService(dir string, logger *logger.Logger) *SSHKeyService {
	return &SSHKeyService{dir: dir, keyBits: defaultKeyBits, logger: logger}
}

func (s *SSHKeyService) privatePath(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *SSHKeyService) publicPath(name string) string {
	return s.privatePath(name) + ".pub"
}

// Generate writes an unencrypted RSA keypair <name> and <name>.pub and
// returns the public key path.
func (s *SSHKeyService) Generate(name string) (string, error) {
	if err := utils.ValidateKeyName(name); err != nil {
		return "", err
	}
	if _, err := os.Stat(s.privatePath(name)); err == nil {
		return "", fmt.Errorf("%w: %s", ErrKeyExists, name)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, s.keyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate private key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(privateKey, name)
	if err != nil {
		return "", fmt.Errorf("failed to encode private key: %w", err)
	}
	publicKey, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to encode public key: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", err
	}
	if err := renameio.WriteFile(s.privatePath(name), pem.EncodeToMemory(block), 0o600); err != nil {
		return "", fmt.Errorf("failed to write private key: %w", err)
	}
	if err := renameio.WriteFile(s.publicPath(name), ssh.MarshalAuthorizedKey(publicKey), 0o644); err != nil {
		return "", fmt.Errorf("failed to write public key: %w", err)
	}

	s.logger.ArtifactWritten("ssh-key", s.publicPath(name))
	return s.publicPath(name), nil
}

// PublicKey returns the authorized_keys line of key name.
func (s *SSHKeyService) PublicKey(name string) (string, error) {
	if err := utils.ValidateKeyName(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.publicPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
