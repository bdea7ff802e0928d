// package formatter exports the feed queue to playlist file formats (M3U, PLS, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

// PlaylistFormat selects the export file format.
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible). Extended info lines
	// carry duration and artist/title.
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files, an INI-style format with file, title,
	// and length per entry.
	FormatPLS

	// FormatCSV creates a spreadsheet-friendly dump of the queue.
	FormatCSV
)

// ParseFormat maps a file extension or flag value to a [PlaylistFormat].
func ParseFormat(s string) (PlaylistFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "m3u", "m3u8":
		return FormatM3U, nil
	case "pls":
		return FormatPLS, nil
	case "csv":
		return FormatCSV, nil
	default:
		return 0, fmt.Errorf("%w: unknown playlist format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for the format, dot included.
func (f PlaylistFormat) Extension() string {
	switch f {
	case FormatPLS:
		return ".pls"
	case FormatCSV:
		return ".csv"
	default:
		return ".m3u"
	}
}

// ExportQueue renders tracks in the given format. Stream URLs are used as
// entry locations so the files play in any network-capable player.
func ExportQueue(name string, tracks []services.Track, format PlaylistFormat) ([]byte, error) {
	if len(tracks) == 0 {
		return nil, shared.ErrEmptyFeed
	}

	switch format {
	case FormatPLS:
		return exportPLS(tracks), nil
	case FormatCSV:
		return exportCSV(tracks)
	default:
		return exportM3U(name, tracks), nil
	}
}

// WriteQueueExport renders the queue and writes it next to path, appending
// the format's extension when missing. Returns the final path.
func WriteQueueExport(path string, tracks []services.Track, format PlaylistFormat) (string, error) {
	data, err := ExportQueue(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), tracks, format)
	if err != nil {
		return "", err
	}

	if filepath.Ext(path) == "" {
		path += format.Extension()
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write playlist: %w", err)
	}
	return path, nil
}

// exportM3U renders an extended M3U playlist:
//
//	#EXTM3U
//	#PLAYLIST:name
//	#EXTINF:215,The Midnights - Night Drive
//	https://cdn.example.com/11.mp3
func exportM3U(name string, tracks []services.Track) []byte {
	var sb strings.Builder

	sb.WriteString("#EXTM3U\n")
	if name != "" {
		sb.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", name))
	}

	for _, track := range tracks {
		sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", track.Duration, track.ArtistName, track.Title))
		sb.WriteString(track.StreamURL + "\n")
	}

	return []byte(sb.String())
}

// exportPLS renders an INI-style PLS playlist:
//
//	[playlist]
//	File1=https://cdn.example.com/11.mp3
//	Title1=Night Drive
//	Length1=215
//	NumberOfEntries=1
//	Version=2
func exportPLS(tracks []services.Track) []byte {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")
	for i, track := range tracks {
		idx := i + 1
		sb.WriteString(fmt.Sprintf("File%d=%s\n", idx, track.StreamURL))
		sb.WriteString(fmt.Sprintf("Title%d=%s - %s\n", idx, track.ArtistName, track.Title))
		sb.WriteString(fmt.Sprintf("Length%d=%d\n", idx, track.Duration))
	}
	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", len(tracks)))
	sb.WriteString("Version=2\n")

	return []byte(sb.String())
}

// exportCSV renders the queue with columns: ID, Title, Artist, Duration, Plays, URL.
func exportCSV(tracks []services.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Duration", "Plays", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			strconv.Itoa(track.ID),
			track.Title,
			track.ArtistName,
			shared.FormatDuration(track.Duration),
			strconv.Itoa(track.PlayCount),
			track.StreamURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
