package instance

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// buildUserData combines the agent install script with explicit user
// data. A single part is used verbatim, two become a multipart document
// with the agent script first.
func buildUserData(ctx *Context, explicit *string) (*string, error) {
	var parts []string
	if ctx.Agent != nil {
		script, err := ctx.Agent.InitScript(ctx.Node.Properties.AgentConfig, ctx.Node.BootstrapContext)
		if err != nil {
			return nil, &ConfigError{Message: "failed to render agent install script", Err: err}
		}
		if script != "" {
			parts = append(parts, script)
		}
	}
	if explicit != nil && *explicit != "" {
		parts = append(parts, *explicit)
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return &parts[0], nil
	}
	doc, err := multipartUserData(parts)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func multipartUserData(parts []string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, part := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", partContentType(part)+`; charset="us-ascii"`)
		h.Set("MIME-Version", "1.0")
		h.Set("Content-Transfer-Encoding", "7bit")
		pw, err := w.CreatePart(h)
		if err != nil {
			return "", fmt.Errorf("failed to create user data part: %w", err)
		}
		if _, err := pw.Write([]byte(part)); err != nil {
			return "", fmt.Errorf("failed to write user data part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close user data: %w", err)
	}
	return fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\nMIME-Version: 1.0\n\n%s", w.Boundary(), body.String()), nil
}

// partContentType picks the cloud-init part type from the leading line.
func partContentType(part string) string {
	switch {
	case strings.HasPrefix(part, "#cloud-config"):
		return "text/cloud-config"
	case strings.HasPrefix(part, "#include"):
		return "text/x-include-url"
	case strings.HasPrefix(part, "#cloud-boothook"):
		return "text/cloud-boothook"
	default:
		return "text/x-shellscript"
	}
}
