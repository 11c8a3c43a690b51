package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// driverDSN turns a sqlite:// URL into what the driver opens: ":memory:", or a
// file path plus any query parameters. Relative paths stay relative to the
// working directory.
func driverDSN(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}
	if rest == ":memory:" {
		return rest, nil
	}

	path, query, _ := strings.Cut(rest, "?")
	path, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("sqlite DSN has no database path")
	}
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "../") {
		path = "./" + path
	}

	if query != "" {
		return path + "?" + query, nil
	}
	return path, nil
}

// connPragmas are passed through the DSN so the driver applies them to every
// pooled connection.
var connPragmas = []string{"busy_timeout(30000)", "journal_mode(WAL)", "synchronous(NORMAL)"}

func withPragmas(target string) string {
	if target == ":memory:" {
		return target
	}
	params := make([]string, 0, len(connPragmas))
	for _, pragma := range connPragmas {
		params = append(params, "_pragma="+pragma)
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + strings.Join(params, "&")
}
