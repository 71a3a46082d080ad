package drivers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Text is the driver for list/text.
//
// Each non-empty line is an item. Saved items are terminated by newline,
// so they should be non-empty and should not end with "\r".
var Text = newFileDriver(NewSpec("list", "text"), decodeText, encodeText)

func decodeText(_ context.Context, r io.Reader) ([]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	lines := []string{}
	for _, l := range strings.Split(string(content), "\n") {
		l = strings.TrimSuffix(l, "\r")
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func encodeText(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for nth, l := range lines {
		switch {
		case l == "":
			return fmt.Errorf("item %d is empty", nth)
		case strings.Contains(l, "\n"):
			return fmt.Errorf("item %d contains newline", nth)
		case strings.HasSuffix(l, "\r"):
			return fmt.Errorf("item %d ends with carriage return", nth)
		}
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
