package accounts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultPasswdPath is the standard location of the local account database.
const DefaultPasswdPath = "/etc/passwd"

// PasswdFile reads accounts from a file in passwd(5) format.
type PasswdFile struct {
	Path string
}

// Accounts parses every record in the file.
func (p PasswdFile) Accounts() ([]Record, error) {
	path := p.Path
	if path == "" {
		path = DefaultPasswdPath
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	records, err := ParsePasswd(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// ParsePasswd decodes name:password:uid:gid:gecos:home:shell lines. Blank lines
// and lines starting with '#' are skipped.
func ParsePasswd(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var records []Record

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) < 7 {
			return nil, fmt.Errorf("line %d: expected 7 fields, got %d", lineNo, len(fields))
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid uid %q", lineNo, fields[2])
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid gid %q", lineNo, fields[3])
		}

		records = append(records, Record{
			Username: fields[0],
			UID:      uid,
			GID:      gid,
			FullName: fullName(fields[4]),
			HomeDir:  fields[5],
			Shell:    fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read passwd: %w", err)
	}
	return records, nil
}

// fullName keeps the first GECOS subfield, which holds the user's real name.
func fullName(gecos string) string {
	name, _, _ := strings.Cut(gecos, ",")
	return strings.TrimSpace(name)
}
