package proxy

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// oauth1Credentials names the four vault-sourced secrets an OAuth 1.0a
// signature needs.
type oauth1Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	TokenKey       string
	TokenSecret    string
}

// nonceFunc and timestampFunc are overridden in tests to make the
// signature deterministic.
var (
	nonceFunc     = randomNonce
	timestampFunc = func() string { return strconv.FormatInt(time.Now().Unix(), 10) }
)

func randomNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// signOAuth1 builds the RFC 5849 HMAC-SHA1 Authorization header for
// method+rawURL using creds. rawURL may carry a query string; query
// parameters are merged into the signature base string, while JSON body
// fields are not.
func signOAuth1(method, rawURL string, creds oauth1Credentials) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url for oauth1 signing: %w", err)
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     creds.ConsumerKey,
		"oauth_nonce":            nonceFunc(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        timestampFunc(),
		"oauth_token":            creds.TokenKey,
		"oauth_version":          "1.0",
	}

	allParams := make(map[string][]string)
	for k, v := range oauthParams {
		allParams[k] = append(allParams[k], v)
	}
	for k, v := range u.Query() {
		allParams[k] = append(allParams[k], v...)
	}

	baseURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
	baseString := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(encodeParams(allParams))

	signingKey := percentEncode(creds.ConsumerSecret) + "&" + percentEncode(creds.TokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(baseString))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	oauthParams["oauth_signature"] = signature

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(parts, ", "), nil
}

// encodeParams builds the sorted, percent-encoded "k=v&k=v" parameter
// string used both in the base string and (via an outer percent-encode)
// as one signature input, per RFC 5849 §3.4.1.3.2.
func encodeParams(params map[string][]string) string {
	type kv struct{ k, v string }
	var pairs []kv
	for k, vs := range params {
		ek := percentEncode(k)
		for _, v := range vs {
			pairs = append(pairs, kv{ek, percentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return strings.Join(parts, "&")
}

// percentEncode implements RFC 3986 unreserved-set percent-encoding:
// A-Z a-z 0-9 - . _ ~ pass through unescaped, everything else becomes
// %XX in uppercase hex. url.QueryEscape is not used because it encodes
// space as "+" and uses a different reserved set than OAuth 1.0a requires.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
