package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Grace Community Church", "Grace Community Church"},
		{"trims", "   hello world \n", "hello world"},
		{"script block removed", "<script>alert('x')</script>Hello", "Hello"},
		{"tags stripped", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"ampersand restored", "Tom & Jerry", "Tom & Jerry"},
		{"quotes restored", `O'Brien said "hi"`, `O'Brien said "hi"`},
		{"javascript scheme", "click javascript:alert(1)", "click alert(1)"},
		{"javascript scheme mixed case", "JaVaScRiPt :void(0)", "void(0)"},
		{"nested javascript scheme", "jajavascript:vascript:run()", "run()"},
		{"event handler", "x onclick=doEvil()", "x doEvil()"},
		{"event handler uppercase", "ONMOUSEOVER = steal()", "steal()"},
		{"event handler inside a word", "xonclick=alert(1)", "xalert(1)"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestTextKeepsAngleEntitiesEncoded(t *testing.T) {
	out := Text("a < b &lt;script&gt;")
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.Contains(t, out, "&lt;")
}

func TestTextNeverEmitsScriptTag(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>",
		"<SCRIPT SRC=//evil.example/x.js></SCRIPT>",
		"<<script>script>alert(1)<</script>/script>",
		"<scr<script>ipt>alert(1)</script>",
		"<img src=x onerror=alert(1)>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
	}
	for _, in := range inputs {
		out := Text(in)
		assert.NotContains(t, strings.ToLower(out), "<script", "input %q", in)
		assert.NotContains(t, strings.ToLower(out), "onerror=", "input %q", in)
	}
}
