package audio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// Metadata holds song information shown in the status line.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// StatusLine formats the metadata as "artist - title".
func (m Metadata) StatusLine() string {
	switch {
	case m.Artist != "" && m.Title != "":
		return m.Artist + " - " + m.Title
	case m.Title != "":
		return m.Title
	default:
		return m.Artist
	}
}

// ReadMetadata reads ID3v2 tags (MP3), Vorbis comments (FLAC, OGG) or the
// RIFF INFO chunk (WAV), falling back to the file name when no title is tagged.
func ReadMetadata(path string) Metadata {
	var m Metadata
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		m = readID3(path)
	case ".flac":
		m = readFLACComments(path)
	case ".ogg":
		m = readOGGComments(path)
	case ".wav":
		m = readWAVInfo(path)
	}
	if m.Title != "" {
		return m
	}

	base := filepath.Base(path)
	m.Title = strings.TrimSuffix(base, filepath.Ext(base))
	return m
}

func readID3(path string) Metadata {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Metadata{}
	}
	defer tag.Close()
	return Metadata{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
	}
}

func readFLACComments(path string) Metadata {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return Metadata{}
	}
	defer stream.Close()

	var m Metadata
	for _, block := range stream.Blocks {
		comments, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, tag := range comments.Tags {
			m.setComment(tag[0], tag[1])
		}
	}
	return m
}

func readOGGComments(path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}
	}
	defer f.Close()

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return Metadata{}
	}
	var m Metadata
	for _, comment := range reader.CommentHeader().Comments {
		key, value, ok := strings.Cut(comment, "=")
		if ok {
			m.setComment(key, value)
		}
	}
	return m
}

func readWAVInfo(path string) Metadata {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadMetadata()
	if dec.Metadata == nil {
		return Metadata{}
	}
	return Metadata{
		Title:  strings.TrimSpace(dec.Metadata.Title),
		Artist: strings.TrimSpace(dec.Metadata.Artist),
		Album:  strings.TrimSpace(dec.Metadata.Product),
	}
}

// setComment applies one Vorbis comment; field names are case-insensitive.
func (m *Metadata) setComment(key, value string) {
	value = strings.TrimSpace(value)
	switch strings.ToUpper(key) {
	case "TITLE":
		m.Title = value
	case "ARTIST":
		m.Artist = value
	case "ALBUM":
		m.Album = value
	}
}
