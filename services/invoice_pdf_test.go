package services

import (
	"bytes"
	"testing"
)

func TestRenderInvoicePDF(t *testing.T) {
	data, err := RenderInvoicePDF(layoutDoc(validTemplate(), 1))
	if err != nil {
		t.Fatalf("RenderInvoicePDF error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("output does not start with %%PDF-, got %q", data[:min(len(data), 8)])
	}
}

func TestRenderInvoicePDF_MultiPage(t *testing.T) {
	single, err := RenderInvoicePDF(layoutDoc(validTemplate(), 1))
	if err != nil {
		t.Fatalf("RenderInvoicePDF error: %v", err)
	}
	multi, err := RenderInvoicePDF(layoutDoc(validTemplate(), 60))
	if err != nil {
		t.Fatalf("RenderInvoicePDF error: %v", err)
	}
	if len(multi) <= len(single) {
		t.Errorf("multi-page PDF (%d bytes) should be larger than single page (%d bytes)", len(multi), len(single))
	}
}

func TestRenderInvoicePDF_DefaultTemplateWithSampleData(t *testing.T) {
	doc := SampleInvoiceDocument(DefaultTemplate(), "", testContext().Invoice.Date, DocumentOptions{})
	data, err := RenderInvoicePDF(doc)
	if err != nil {
		t.Fatalf("RenderInvoicePDF error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("not a PDF")
	}
}

func TestRenderInvoicePDF_LayoutFailureReturnsNoBytes(t *testing.T) {
	tpl := validTemplate()
	pairs := make([]KeyValue, 60)
	for i := range pairs {
		pairs[i] = KeyValue{Key: "K", Value: "worker.name"}
	}
	tpl.Lines[0] = TextLine{Left: &HorizontalBlock{ID: 1, KeyValues: pairs}}

	data, err := RenderInvoicePDF(layoutDoc(tpl, 1))
	if KindOf(err) != KindRender {
		t.Fatalf("expected render error, got %v", err)
	}
	if data != nil {
		t.Error("expected no bytes on failure")
	}
}

func TestPDFMeasurer(t *testing.T) {
	m := NewPDFMeasurer()
	regular := m.StringWidth("Invoice", false, BodySize)
	bold := m.StringWidth("Invoice", true, BodySize)
	large := m.StringWidth("Invoice", false, TitleSize)

	if regular <= 0 {
		t.Fatalf("width = %v", regular)
	}
	if bold <= regular {
		t.Errorf("bold width %v should exceed regular %v", bold, regular)
	}
	if large <= regular {
		t.Errorf("larger size width %v should exceed %v", large, regular)
	}
	if m.StringWidth("", false, BodySize) != 0 {
		t.Error("empty string should have zero width")
	}
}
