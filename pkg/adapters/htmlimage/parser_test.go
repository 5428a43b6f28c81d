package htmlimage

import (
	"errors"
	"testing"
)

func TestImageURL(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		base string
		want string
	}{
		{
			name: "og image wins",
			doc:  `<html><head><meta property="og:image" content="/og.png"></head><body><img src="a.png"></body></html>`,
			base: "https://example.com/page/",
			want: "https://example.com/og.png",
		},
		{
			name: "first img relative",
			doc:  `<body><img src="a.png"><img src="b.png"></body>`,
			base: "https://example.com/page/",
			want: "https://example.com/page/a.png",
		},
		{
			name: "base element",
			doc:  `<head><base href="https://cdn.example.com/img/"></head><body><img src="x.jpg"></body>`,
			base: "https://example.com/",
			want: "https://cdn.example.com/img/x.jpg",
		},
		{
			name: "skips empty and javascript",
			doc:  `<img src=""><img src="javascript:void(0)"><img src="//other.example.com/c.gif">`,
			base: "http://example.com/",
			want: "http://other.example.com/c.gif",
		},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ImageURL([]byte(tt.doc), tt.base)
			if err != nil {
				t.Fatalf("ImageURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageURLsDeduplicates(t *testing.T) {
	doc := `<meta property="og:image" content="https://e.com/a.png"><img src="https://e.com/a.png"><img src="/b.png">`
	got, err := New().ImageURLs([]byte(doc), "https://e.com/")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "https://e.com/a.png" || got[1] != "https://e.com/b.png" {
		t.Errorf("ImageURLs() = %v", got)
	}
}

func TestImageURLNoImage(t *testing.T) {
	_, err := New().ImageURL([]byte("<p>nothing here</p>"), "https://example.com/")
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("ImageURL() error = %v, want ErrNoImage", err)
	}
}

func TestImageURLsIconLast(t *testing.T) {
	doc := `<head><link rel="shortcut icon" href="/fav.png"><link rel="stylesheet" href="/s.css"></head><body><img src="/a.png"></body>`
	got, err := New().ImageURLs([]byte(doc), "https://e.com/")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "https://e.com/a.png" || got[1] != "https://e.com/fav.png" {
		t.Errorf("ImageURLs() = %v", got)
	}
}
