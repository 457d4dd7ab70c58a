package instance

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/instancectl/internal/node"
)

// PrivateKeyPath resolves the key file used to decrypt the instance
// password: the private_key_path property, else the private_key_path of
// the related key pair node, else the bootstrap agent key.
func PrivateKeyPath(ctx *Context) (string, error) {
	fromProperty := ctx.Node.Properties.PrivateKeyPath

	rel, err := ctx.Node.SingleRelated(node.KindKeyPair, true)
	if err != nil {
		return "", &ConfigError{Message: "invalid key pair relationship", Err: err}
	}
	var fromRelationship string
	if rel != nil {
		fromRelationship = rel.TargetProperty("private_key_path")
	}

	if fromProperty != "" && fromRelationship != "" {
		return "", configErrorf("server can't both have a private_key_path and be connected to a keypair via a relationship")
	}

	path := fromProperty
	if path == "" {
		path = fromRelationship
	}
	if path == "" {
		path = ctx.Node.BootstrapContext.AgentKeyPath
	}
	path = expandHome(path)

	if path == "" {
		return "", configErrorf("Cannot locate key file; expected file path: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", configErrorf("Cannot locate key file; expected file path: %s", path)
	}
	return path, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// retrievePassword fetches the administrative password of an instance.
// Password data that is not published yet is a transient failure.
func retrievePassword(ctx *Context, id string) (string, error) {
	data, err := ctx.Client.GetPasswordData(ctx, id)
	if err != nil {
		return "", classify(err, "get password data of instance %s", id)
	}
	if strings.TrimSpace(data.Data) == "" {
		return "", &TransientError{
			Op:  "get password data",
			Err: fmt.Errorf("password of instance %s is not available yet", id),
		}
	}
	if !data.Encrypted {
		return data.Data, nil
	}

	path, err := PrivateKeyPath(ctx)
	if err != nil {
		return "", err
	}
	keyPEM, err := os.ReadFile(path)
	if err != nil {
		return "", &ConfigError{Message: fmt.Sprintf("failed to read key file %s", path), Err: err}
	}
	return decryptPassword(data.Data, keyPEM)
}

// decryptPassword decrypts base64 password data with an RSA private key
// in PEM form.
func decryptPassword(encoded string, keyPEM []byte) (string, error) {
	raw, err := ssh.ParseRawPrivateKey(keyPEM)
	if err != nil {
		return "", &ConfigError{Message: "failed to parse private key", Err: err}
	}
	key, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return "", configErrorf("password decryption needs an RSA key, got %T", raw)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", &ConfigError{Message: "failed to decode password data", Err: err}
	}
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, key, ciphertext)
	if err != nil {
		return "", &ConfigError{Message: "failed to decrypt password data", Err: err}
	}
	return string(plain), nil
}
