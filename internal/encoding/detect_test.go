package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/encoding"
)

func TestNewUTF8Reader(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		want        string
		wantCharset encoding.Charset // empty when detection may pick any single-byte charset
	}{
		{
			name:        "UTF8Passthrough",
			input:       []byte("Name,Price\nCrème brûlée,4.50\nJalapeño,1.20\n"),
			want:        "Name,Price\nCrème brûlée,4.50\nJalapeño,1.20\n",
			wantCharset: encoding.UTF8,
		},
		{
			name: "Windows1252",
			// "Crème,2\n" with è = 0xE8
			input: []byte{'C', 'r', 0xE8, 'm', 'e', ',', '2', '\n'},
			want:  "Crème,2\n",
		},
		{
			name:        "UTF8BOMStripped",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Price\n")...),
			want:        "Name,Price\n",
			wantCharset: encoding.UTF8,
		},
		{
			name:        "UTF16LE",
			input:       []byte{0xFF, 0xFE, 'N', 0, 'a', 0, 'm', 0, 'e', 0, '\n', 0},
			want:        "Name\n",
			wantCharset: encoding.UTF16LE,
		},
		{
			name:        "UTF16BE",
			input:       []byte{0xFE, 0xFF, 0, 'O', 0, 'k'},
			want:        "Ok",
			wantCharset: encoding.UTF16BE,
		},
		{
			name:        "Empty",
			input:       nil,
			want:        "",
			wantCharset: encoding.UTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, charset, err := encoding.NewUTF8Reader(bytes.NewReader(tt.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)

			assert.Equal(t, tt.want, string(got))
			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, charset)
			}
		})
	}
}

func TestNewUTF8Reader_MultiByteRuneAcrossPeekWindow(t *testing.T) {
	// Push a two-byte rune across the 4096 byte sniff boundary.
	input := strings.Repeat("a", 4095) + "é" + "\n"

	r, charset, err := encoding.NewUTF8Reader(strings.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, encoding.UTF8, charset)
	assert.Equal(t, input, string(got))
}
