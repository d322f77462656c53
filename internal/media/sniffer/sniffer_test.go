package sniffer

import (
	"net/http"
	"testing"
)

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name     string
		head     []byte
		wantType MediaType
		wantMIME string
		wantErr  bool
	}{
		{
			name:     "png",
			head:     []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0},
			wantType: TypePNG,
			wantMIME: "image/png",
		},
		{
			name:     "jpeg",
			head:     []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10},
			wantType: TypeJPEG,
			wantMIME: "image/jpeg",
		},
		{
			name:     "gif87a",
			head:     []byte("GIF87a......"),
			wantType: TypeGIF,
			wantMIME: "image/gif",
		},
		{
			name:     "gif89a",
			head:     []byte("GIF89a......"),
			wantType: TypeGIF,
			wantMIME: "image/gif",
		},
		{
			name:     "bmp",
			head:     []byte{'B', 'M', 0x36, 0x00, 0x00, 0x00},
			wantType: TypeBMP,
			wantMIME: "image/bmp",
		},
		{
			name:     "webp",
			head:     append([]byte("RIFF"), append([]byte{0, 0, 0, 0}, []byte("WEBPVP8 ")...)...),
			wantType: TypeWEBP,
			wantMIME: "image/webp",
		},
		{
			name:    "empty",
			head:    nil,
			wantErr: true,
		},
		{
			name:    "plain text",
			head:    []byte("hello world, definitely not an image"),
			wantErr: true,
		},
		{
			name:    "truncated riff",
			head:    []byte("RIFF1234"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DetectHead(tt.head)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Type != tt.wantType {
				t.Errorf("type = %s, want %s", result.Type, tt.wantType)
			}
			if result.MIME != tt.wantMIME {
				t.Errorf("mime = %s, want %s", result.MIME, tt.wantMIME)
			}
		})
	}
}

func TestMimeTypeFromHTTP(t *testing.T) {
	header := http.Header{}
	if got := MimeTypeFromHTTP(header); got != "" {
		t.Errorf("empty header = %q, want empty", got)
	}

	header.Set("Content-Type", "image/png; charset=binary")
	if got := MimeTypeFromHTTP(header); got != "image/png" {
		t.Errorf("with params = %q, want image/png", got)
	}
}
