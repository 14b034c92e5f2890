package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func request(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"trusted header wins", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8", "X-Real-IP": "10.0.0.1"}, "10.0.0.1"},
		{"last forwarded hop", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "5.6.7.8"},
		{"single forwarded", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "1.2.3.4"},
		{"trailing comma ignored", map[string]string{"X-Forwarded-For": "1.2.3.4, "}, "1.2.3.4"},
		{"none", nil, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClientIP(request(tc.headers)))
		})
	}
}

func TestIPResolverCustomHeader(t *testing.T) {
	r := request(map[string]string{"CF-Connecting-IP": "203.0.113.9", "X-Real-IP": "10.0.0.1"})
	assert.Equal(t, "203.0.113.9", IPResolver{TrustedHeader: "CF-Connecting-IP"}.Resolve(r))
}

func TestOriginValidatorDevelopmentAlwaysPasses(t *testing.T) {
	v := NewOriginValidator(false, SiteOrigins("example.com"))
	assert.Empty(t, v.Check(request(map[string]string{"Origin": "https://evil.com"})))
	assert.Empty(t, v.Check(request(nil)))
}

func TestOriginValidatorProduction(t *testing.T) {
	v := NewOriginValidator(true, SiteOrigins("example.com"))
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"bare origin", map[string]string{"Origin": "https://example.com"}, ""},
		{"www origin", map[string]string{"Origin": "https://www.example.com"}, ""},
		{"bad origin", map[string]string{"Origin": "https://evil.com"}, "Forbidden origin: https://evil.com"},
		{"bad origin beats good referer", map[string]string{"Origin": "https://evil.com", "Referer": "https://example.com/contact"}, "Forbidden origin: https://evil.com"},
		{"good origin beats bad referer", map[string]string{"Origin": "https://example.com", "Referer": "https://evil.com/"}, ""},
		{"http scheme rejected", map[string]string{"Origin": "http://example.com"}, "Forbidden origin: http://example.com"},
		{"good referer", map[string]string{"Referer": "https://www.example.com/services?x=1"}, ""},
		{"bad referer not echoed", map[string]string{"Referer": "https://evil.com/page"}, "Forbidden referer"},
		{"unparseable referer", map[string]string{"Referer": "::not a url"}, "Forbidden referer"},
		{"relative referer", map[string]string{"Referer": "/contact"}, "Forbidden referer"},
		{"missing", nil, "Missing origin header"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, v.Check(request(tc.headers)))
		})
	}
}

func TestSiteOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, SiteOrigins("www.example.com"))
	assert.Nil(t, SiteOrigins(""))
}

func TestBearerToken(t *testing.T) {
	assert.True(t, BearerToken(request(map[string]string{"Authorization": "Bearer s3cret"}), "s3cret"))
	assert.True(t, BearerToken(request(map[string]string{"Authorization": "bearer s3cret"}), "s3cret"))
	assert.False(t, BearerToken(request(map[string]string{"Authorization": "Bearer wrong"}), "s3cret"))
	assert.False(t, BearerToken(request(map[string]string{"Authorization": "s3cret"}), "s3cret"))
	assert.False(t, BearerToken(request(nil), "s3cret"))
	assert.False(t, BearerToken(request(map[string]string{"Authorization": "Bearer "}), ""))
}
