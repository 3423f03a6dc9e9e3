package signing

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// SigParams are the parsed/constructed fields of the signature-params string.
type SigParams struct {
	Components []string
	Created    int64
	Expires    int64
	Nonce      string
	KeyID      string
}

// componentsFor returns the covered-component set for a method, fixed by
// method class per §4.5.1.
func componentsFor(method string) []string {
	if isBodyBearing(method) {
		return []string{"@method", "@authority", "@path", "content-digest"}
	}
	return []string{"@method", "@authority", "@path"}
}

// contentDigest computes the RFC 9530 sha-256 digest header value.
func contentDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return "sha-256=:" + base64.StdEncoding.EncodeToString(sum[:]) + ":"
}

// paramsString assembles the signature-params string in exactly the field
// order required: (<quoted components>);created=<int>;expires=<int>;nonce="<str>";keyid="<str>".
func paramsString(components []string, p SigParams) string {
	quoted := make([]string, len(components))
	for i, c := range components {
		quoted[i] = `"` + c + `"`
	}
	return fmt.Sprintf(`(%s);created=%d;expires=%d;nonce="%s";keyid="%s"`,
		strings.Join(quoted, " "), p.Created, p.Expires, p.Nonce, p.KeyID)
}

// Base constructs the RFC 9421 signature base and its companion params
// string over req, covering the method-class-appropriate component set.
// Client and verifier must produce byte-identical output given identical
// inputs — this is the function both sides call.
func Base(req SignableRequest, p SigParams) (base string, params string, err error) {
	components := componentsFor(req.Method)
	p.Components = components

	digest := ""
	if isBodyBearing(req.Method) {
		digest = contentDigest(req.Body)
	}

	var lines []string
	for _, c := range components {
		switch c {
		case "@method":
			lines = append(lines, `"@method": `+strings.ToUpper(req.Method))
		case "@authority":
			lines = append(lines, `"@authority": `+req.Authority)
		case "@path":
			lines = append(lines, `"@path": `+req.Path)
		case "content-digest":
			lines = append(lines, `"content-digest": `+digest)
		default:
			return "", "", fmt.Errorf("signing: unknown covered component %q", c)
		}
	}

	params = paramsString(components, p)
	lines = append(lines, `"@signature-params": `+params)

	return strings.Join(lines, "\n"), params, nil
}

// ParseSignatureInput parses a `Signature-Input` header value of the form
// `eth=(...);created=...;expires=...;nonce="...";keyid="..."` back into its
// component list and SigParams.
func ParseSignatureInput(header string) (components []string, p SigParams, err error) {
	eq := strings.Index(header, "=")
	if eq < 0 {
		return nil, SigParams{}, fmt.Errorf("signing: malformed Signature-Input")
	}
	rest := header[eq+1:]

	open := strings.Index(rest, "(")
	close := strings.Index(rest, ")")
	if open != 0 || close < open {
		return nil, SigParams{}, fmt.Errorf("signing: malformed Signature-Input component list")
	}
	compList := rest[open+1 : close]
	for _, tok := range strings.Fields(compList) {
		components = append(components, strings.Trim(tok, `"`))
	}

	params := rest[close+1:]
	params = strings.TrimPrefix(params, ";")
	for _, field := range strings.Split(params, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			return nil, SigParams{}, fmt.Errorf("signing: malformed Signature-Input field %q", field)
		}
		key, val := kv[0], strings.Trim(kv[1], `"`)
		switch key {
		case "created":
			n, perr := strconv.ParseInt(val, 10, 64)
			if perr != nil {
				return nil, SigParams{}, fmt.Errorf("signing: malformed created field: %w", perr)
			}
			p.Created = n
		case "expires":
			n, perr := strconv.ParseInt(val, 10, 64)
			if perr != nil {
				return nil, SigParams{}, fmt.Errorf("signing: malformed expires field: %w", perr)
			}
			p.Expires = n
		case "nonce":
			p.Nonce = val
		case "keyid":
			p.KeyID = val
		}
	}

	return components, p, nil
}
