package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument: identidade malformada, transaction id vazio ou timestamp ausente
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidEvent: evento construído sem os campos obrigatórios
	ErrInvalidEvent = errors.New("invalid event")
	// ErrInvalidOperation: operação fora do ciclo de vida esperado da aposta
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrCorruptDocument: campos derivados do documento não batem com o fold dos eventos
	ErrCorruptDocument = errors.New("corrupt wager document")
)

// OpError carrega a operação e a identidade da aposta que falhou.
// É o formato exposto para quem consome o erro (HTTP, CLI), sem estado interno.
type OpError struct {
	Op      string
	WagerID string
	Err     error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("wager %s: %s: %v", e.WagerID, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, wagerID string, err error) error {
	return &OpError{Op: op, WagerID: wagerID, Err: err}
}
