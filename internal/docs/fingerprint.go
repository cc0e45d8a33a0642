package docs

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/codemap/internal/frontmatter"
)

// Verification is the outcome of checking a document's fingerprint.
type Verification string

const (
	VerifyOK        Verification = "ok"
	VerifyModified  Verification = "modified"
	VerifyUnstamped Verification = "unstamped"
	VerifyMissing   Verification = "missing"
)

// Stamp serializes fields, computes the content fingerprint over them and
// body, and returns the document with the fingerprint as first header line.
func Stamp(fields map[string]any, body []byte) ([]byte, error) {
	rest := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != mdfp.FingerprintField {
			rest[k] = v
		}
	}
	header, err := frontmatter.Serialize(rest)
	if err != nil {
		return nil, err
	}
	fp := mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(header), "\n"), string(body))
	line, err := frontmatter.Serialize(map[string]any{mdfp.FingerprintField: fp})
	if err != nil {
		return nil, err
	}
	return frontmatter.Join(append(line, header...), body), nil
}

// Verify recomputes the fingerprint of a stamped document.
func Verify(content []byte) (Verification, error) {
	header, body, had, err := frontmatter.Split(content)
	if err != nil {
		return "", err
	}
	if !had {
		return VerifyUnstamped, nil
	}
	fields, err := frontmatter.Parse(header)
	if err != nil {
		return "", err
	}
	recorded, _ := fields[mdfp.FingerprintField].(string)
	if recorded == "" {
		return VerifyUnstamped, nil
	}

	var kept []string
	for _, line := range strings.SplitAfter(string(header), "\n") {
		if line == "" || strings.HasPrefix(line, mdfp.FingerprintField+":") {
			continue
		}
		kept = append(kept, line)
	}
	rest := strings.TrimSuffix(strings.Join(kept, ""), "\n")
	if mdfp.CalculateFingerprintFromParts(rest, string(body)) != recorded {
		return VerifyModified, nil
	}
	return VerifyOK, nil
}
