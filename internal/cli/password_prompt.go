package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/terraincognita07/comoestou/internal/identity"
)

var errNotTerminal = errors.New("password prompt needs an interactive terminal")

// promptNewPassword asks for a password twice with echo off.
func promptNewPassword(in *os.File, out io.Writer) (string, error) {
	if in == nil {
		return "", errNotTerminal
	}
	restore, err := disableEcho(in)
	if err != nil {
		return "", err
	}
	defer restore()

	return readNewPassword(bufio.NewReader(in), out)
}

func readNewPassword(reader *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "New password: ")
	first, err := readSecretLine(reader)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if len([]rune(first)) < identity.MinPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", identity.MinPasswordLength)
	}

	fmt.Fprint(out, "Repeat password: ")
	second, err := readSecretLine(reader)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func readSecretLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" && errors.Is(err, io.EOF) {
		return "", io.ErrUnexpectedEOF
	}
	return line, nil
}
