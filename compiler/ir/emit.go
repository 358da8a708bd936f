package ir

import (
	"encoding/json"
	"fmt"
)

// wireCell/wireArtifact are the JSON-serializable shadow of Artifact;
// encoding/json already emits map keys in sorted order, which combined with
// Link's coordinate-sorted Cells slice gives byte-for-byte reproducible
// output for the same source (spec §8 property 2).
type wireCell struct {
	Coord   string `json:"coord"`
	Tag     string `json:"tag"`
	Payload int64  `json:"payload"`
}

type wireArtifact struct {
	EntryPoint     string              `json:"entry_point"`
	Cells          []wireCell          `json:"cells"`
	LabelAddr      map[string]string   `json:"label_addr"`
	ProcSignatures map[string]wireProc `json:"proc_signatures"`
}

type wireProc struct {
	RefParams []string `json:"ref_params"`
	ValParams []string `json:"val_params"`
}

// Bytes serializes the artifact deterministically.
func (a *Artifact) Bytes() ([]byte, error) {
	w := wireArtifact{
		EntryPoint:     a.EntryPoint.String(),
		LabelAddr:      make(map[string]string, len(a.LabelAddr)),
		ProcSignatures: make(map[string]wireProc, len(a.ProcSignatures)),
	}
	for _, c := range a.Cells {
		w.Cells = append(w.Cells, wireCell{Coord: c.Coord.String(), Tag: c.Molecule.Tag.Name(), Payload: c.Molecule.Payload})
	}
	for k, v := range a.LabelAddr {
		w.LabelAddr[k] = v.String()
	}
	for k, v := range a.ProcSignatures {
		w.ProcSignatures[k] = wireProc{RefParams: v.RefParams, ValParams: v.ValParams}
	}
	b, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ir: emit: %w", err)
	}
	return b, nil
}
