package library

import (
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pkg/errors"
)

// PageCounter measures a document at import time.
type PageCounter interface {
	PageCount(rs io.ReadSeeker) (int, error)
}

type PDFInspector struct {
	conf *pdfmodel.Configuration
}

func NewPDFInspector() *PDFInspector {
	return &PDFInspector{conf: pdfmodel.NewDefaultConfiguration()}
}

func (p *PDFInspector) PageCount(rs io.ReadSeeker) (int, error) {
	count, err := api.PageCount(rs, p.conf)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read pdf page count")
	}
	return count, nil
}
