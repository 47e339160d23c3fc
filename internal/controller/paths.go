package controller

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadPaths reads one metric path per line. Blank lines and lines starting with '#' are skipped.
func LoadPaths(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("controller: open paths file: %w", err)
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("controller: read paths file: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("controller: no metric paths in %s", file)
	}
	return paths, nil
}
