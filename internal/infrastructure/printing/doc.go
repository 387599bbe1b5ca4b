// Package printing renders warranty certificates.
//
// CertificatePrinter fills an HTML template from certificate data. When a
// PDFRenderer is attached, the same HTML is printed to an A4 portrait PDF
// through a headless Chrome driven by chromedp.
//
// Example usage:
//
//	renderer := NewChromedpRenderer(ChromedpConfig{NoSandbox: true})
//	defer renderer.Close()
//
//	printer, err := NewCertificatePrinter(renderer, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pdf, err := printer.RenderPDF(ctx, data)
package printing
