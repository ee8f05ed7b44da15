package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/tranvictor/carebook/ui"
)

type StringValidator func(st string) error

// PromptInputWithValidation shows a label, then loops until the validator passes.
func PromptInputWithValidation(u ui.UI, label string, validator StringValidator) string {
	if label != "" {
		u.Info(label)
	}
	return u.Ask(func(s string) error {
		return validator(s)
	})
}

// PromptInput shows a label and returns whatever the user types.
func PromptInput(u ui.UI, label string) string {
	if label != "" {
		u.Info(label)
	}
	return strings.TrimSpace(u.Ask(nil))
}

// PromptNonEmpty loops until the user types something.
func PromptNonEmpty(u ui.UI, label string) string {
	return strings.TrimSpace(PromptInputWithValidation(u, label, func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("this can't be empty")
		}
		return nil
	}))
}

// PromptFilePath loops until the user types the path of an existing file.
func PromptFilePath(u ui.UI, label string) string {
	return strings.TrimSpace(PromptInputWithValidation(u, label, func(s string) error {
		info, err := os.Stat(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("couldn't open %s: %w", s, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", s)
		}
		return nil
	}))
}

// PromptPassphrase asks for a passphrase twice until both match.
func PromptPassphrase(u ui.UI, label string) (string, error) {
	for {
		first, err := u.AskSecret(label)
		if err != nil {
			return "", err
		}
		second, err := u.AskSecret("Repeat it")
		if err != nil {
			return "", err
		}
		if first == second {
			return first, nil
		}
		u.Error("The passphrases don't match, please try again.")
	}
}
