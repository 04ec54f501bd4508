package emails

import "testing"

func TestRender(t *testing.T) {
	cases := []struct {
		name string
		text string
		data map[string]string
		want string
	}{
		{"substitutes", "Hello {fullName}, open {link}", map[string]string{"fullName": "Ada", "link": "https://x"}, "Hello Ada, open https://x"},
		{"unknown left intact", "Hi {fullName} from {company}", map[string]string{"fullName": "Ada"}, "Hi Ada from {company}"},
		{"no data", "Hi {fullName}", nil, "Hi {fullName}"},
		{"repeated", "{a}{a}", map[string]string{"a": "x"}, "xx"},
		{"not a placeholder", "{ spaced } {1bad}", map[string]string{"spaced": "x", "1bad": "y"}, "{ spaced } {1bad}"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Render(tc.text, tc.data); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
