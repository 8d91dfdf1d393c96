package handshake

import (
	"context"
	"fmt"

	"github.com/pkg/browser"
)

// Tamaño de la ventana de autorización.
const (
	WindowWidth  = 600
	WindowHeight = 700
)

// WindowSpec describe la ventana a abrir.
type WindowSpec struct {
	URL    string
	Name   string
	Width  int
	Height int
}

// Features devuelve el string de features estilo window.open.
func (w WindowSpec) Features() string {
	return fmt.Sprintf("width=%d,height=%d", w.Width, w.Height)
}

// WindowOpener abre la ventana de autorización.
type WindowOpener interface {
	Open(ctx context.Context, w WindowSpec) error
}

// OpenerFunc adapta una función a WindowOpener.
type OpenerFunc func(ctx context.Context, w WindowSpec) error

func (f OpenerFunc) Open(ctx context.Context, w WindowSpec) error { return f(ctx, w) }

// BrowserOpener abre la URL en el navegador del sistema.
// El tamaño es solo una sugerencia: el navegador externo decide.
type BrowserOpener struct{}

func (BrowserOpener) Open(_ context.Context, w WindowSpec) error {
	return browser.OpenURL(w.URL)
}
