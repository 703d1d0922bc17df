package format

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"
)

// sniffLimit bounds how much of a file the probe reads.
const sniffLimit = 8 * 1024

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	yamlKeyLine = regexp.MustCompile(`^(?:"[^"]*"|'[^']*'|[^\s#:{}\[\],&*!|>'"%@` + "`" + `][^:#]*?)\s*:(?:\s|$)`)
)

// DetectReader sniffs the leading content of r.
func DetectReader(r io.Reader) (Format, error) {
	buf := make([]byte, sniffLimit)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, err
	}
	return Detect(buf[:n])
}

// Detect probes the structure of data: '<' starts XML, '{' or '[' starts
// JSON, and YAML is recognised by a document marker, a directive, a block
// sequence entry or a "key:" line. Anything else is ErrUndetectable.
func Detect(data []byte) (Format, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0, ErrUndetectable
	}

	switch trimmed[0] {
	case '<':
		return XML, nil
	case '{', '[':
		return JSON, nil
	}

	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 1024), sniffLimit)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
			continue
		}
		switch {
		case line == "---" || strings.HasPrefix(line, "--- "):
			return YAML, nil
		case strings.HasPrefix(line, "%YAML") || strings.HasPrefix(line, "%TAG"):
			return YAML, nil
		case line == "-" || strings.HasPrefix(line, "- "):
			return YAML, nil
		case yamlKeyLine.MatchString(line):
			return YAML, nil
		}
		return 0, ErrUndetectable
	}
	return 0, ErrUndetectable
}
