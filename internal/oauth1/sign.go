package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

const signatureMethod = "HMAC-SHA1"

// SafeEncode percent-encodes s as RFC 3986 requires for OAuth: everything
// except ALPHA, DIGIT, '-', '.', '_' and '~' is escaped.
func SafeEncode(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// BaseString builds the signature base string: METHOD&url&params, with the
// query of rawURL merged into params and the URL stripped of query and fragment.
func BaseString(method, rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	all := url.Values{}
	for k, vs := range u.Query() {
		all[k] = append(all[k], vs...)
	}
	for k, vs := range params {
		all[k] = append(all[k], vs...)
	}

	pairs := make([]string, 0, len(all))
	for k, vs := range all {
		for _, v := range vs {
			pairs = append(pairs, SafeEncode(k)+"="+SafeEncode(v))
		}
	}
	sort.Strings(pairs)

	u.RawQuery = ""
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return strings.Join([]string{
		SafeEncode(strings.ToUpper(method)),
		SafeEncode(u.String()),
		SafeEncode(strings.Join(pairs, "&")),
	}, "&"), nil
}

// SigningKey joins the consumer and token secrets.
func SigningKey(consumerSecret, tokenSecret string) string {
	return SafeEncode(consumerSecret) + "&" + SafeEncode(tokenSecret)
}

// Signature computes the HMAC-SHA1 signature of a base string.
func Signature(baseString, consumerSecret, tokenSecret string) string {
	mac := hmac.New(sha1.New, []byte(SigningKey(consumerSecret, tokenSecret)))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// authorizationHeader renders params as an "OAuth" Authorization header.
func authorizationHeader(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, SafeEncode(k)+`="`+SafeEncode(v)+`"`)
		}
	}
	return "OAuth " + strings.Join(parts, ", ")
}
