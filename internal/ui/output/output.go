// Package output renders command results for humans, scripts and Azure Pipelines.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/zerr"
)

// Format selects how results are rendered.
type Format string

const (
	// FormatText prints one human readable line per fact.
	FormatText Format = "text"
	// FormatJSON prints a single JSON document.
	FormatJSON Format = "json"
	// FormatAzure prints Azure Pipelines logging commands that set pipeline variables.
	FormatAzure Format = "azure"
)

// Pipeline variables set in FormatAzure.
const (
	VarCacheKey      = "CACHE_KEY"
	VarRestoreKey    = "CACHE_RESTORE_KEY_"
	VarCacheRestored = "CACHE_RESTORED"
	VarCacheSaved    = "CACHE_SAVED"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatAzure:
		return f, nil
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidFormat, "unsupported output format"), "format", s)
	}
}

// Printer writes results in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

type keysDoc struct {
	Inputs      domain.KeyInputs  `json:"inputs"`
	Primary     domain.CacheKey   `json:"primary"`
	RestoreKeys []domain.CacheKey `json:"restore_keys"`
}

type restoreDoc struct {
	keysDoc
	Hit      domain.HitKind `json:"hit"`
	Restored string         `json:"restored"`
	Entry    *domain.Entry  `json:"entry,omitempty"`
}

type saveDoc struct {
	Key     domain.CacheKey `json:"key"`
	Skipped bool            `json:"skipped"`
	Entry   *domain.Entry   `json:"entry,omitempty"`
}

func newKeysDoc(res domain.Resolution) keysDoc {
	restore := res.Restore
	if restore == nil {
		restore = []domain.CacheKey{}
	}
	return keysDoc{Inputs: res.Inputs, Primary: res.Primary, RestoreKeys: restore}
}

// Keys prints the primary key followed by the restore keys in priority order.
func (p *Printer) Keys(res domain.Resolution) error {
	switch p.format {
	case FormatJSON:
		return p.json(newKeysDoc(res))
	case FormatAzure:
		if err := p.setVariable(VarCacheKey, res.Primary.String()); err != nil {
			return err
		}
		for i, key := range res.Restore {
			if err := p.setVariable(fmt.Sprintf("%s%d", VarRestoreKey, i+1), key.String()); err != nil {
				return err
			}
		}
		return nil
	default:
		if err := p.line("primary: %s", res.Primary); err != nil {
			return err
		}
		for _, key := range res.Restore {
			if err := p.line("restore: %s", key); err != nil {
				return err
			}
		}
		return nil
	}
}

// Restore prints the outcome of a restore.
func (p *Printer) Restore(result *domain.RestoreResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(restoreDoc{
			keysDoc:  newKeysDoc(result.Resolution),
			Hit:      result.Hit,
			Restored: result.Hit.Signal(),
			Entry:    result.Entry,
		})
	case FormatAzure:
		return p.setVariable(VarCacheRestored, result.Hit.Signal())
	default:
		if result.Entry == nil {
			return p.line("cache miss: %s", result.Resolution.Primary)
		}
		return p.line("restored %s match: %s", result.Hit, result.Entry.Key)
	}
}

// Save prints the outcome of a save.
func (p *Printer) Save(result *domain.SaveResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(saveDoc{Key: result.Key, Skipped: result.Skipped, Entry: result.Entry})
	case FormatAzure:
		return p.setVariable(VarCacheSaved, fmt.Sprint(!result.Skipped))
	default:
		if result.Skipped {
			return p.line("up to date: %s", result.Key)
		}
		return p.line("saved: %s", result.Key)
	}
}

func (p *Printer) line(format string, args ...any) error {
	_, err := fmt.Fprintf(p.w, format+"\n", args...)
	return err
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) setVariable(name, value string) error {
	return p.line("##vso[task.setvariable variable=%s]%s", name, value)
}
