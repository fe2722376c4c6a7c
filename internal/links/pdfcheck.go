package links

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ValidatePDF opens a local PDF target and checks it has at least one
// page. A link pointing at a truncated upload is as broken as a 404.
func ValidatePDF(path string) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return fmt.Errorf("no pages")
	}
	return nil
}
