package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "yt-dlp", "yt-dlp"},
		{"empty", "", "''"},
		{"space", "My Videos", "'My Videos'"},
		{"template", "%(title)s.%(ext)s", "'%(title)s.%(ext)s'"},
		{"single quote", "it's", `'it'"'"'s'`},
		{"url query", "https://youtube.com/watch?v=abc&t=1", "'https://youtube.com/watch?v=abc&t=1'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteArg(tt.in))
		})
	}
}

func TestFormatCommandLine(t *testing.T) {
	line := FormatCommandLine("yt-dlp", "-P", "/tmp/my videos", "--", "https://youtu.be/x")
	assert.Equal(t, "yt-dlp -P '/tmp/my videos' -- https://youtu.be/x", line)
}
