// Package pipeline implements the application services for each stage of
// the QSAR workflow (enumerate, prepare, descriptors, train, predict) and
// the runner that chains them.  Stages communicate only through flat files
// under the output directory, so any stage can be re-run in isolation.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chemtools/qsarpipe/pkg/errors"
)

// Paths resolves every artifact location beneath the run output directory.
type Paths struct {
	Root string
}

func NewPaths(root string) Paths { return Paths{Root: root} }

func (p Paths) CandidatesCSV() string  { return filepath.Join(p.Root, "candidates.csv") }
func (p Paths) CandidatesSMI() string  { return filepath.Join(p.Root, "candidates.smi") }
func (p Paths) RegistryCSV() string    { return filepath.Join(p.Root, "registry.csv") }
func (p Paths) DescriptorsCSV() string { return filepath.Join(p.Root, "descriptors.csv") }
func (p Paths) MetricsCSV() string     { return filepath.Join(p.Root, "metrics.csv") }
func (p Paths) DescriptorCache() string {
	return filepath.Join(p.Root, "descriptor_cache.jsonl")
}
func (p Paths) Manifest() string  { return filepath.Join(p.Root, "run.json") }
func (p Paths) ImgDir() string    { return filepath.Join(p.Root, "img") }
func (p Paths) GeomDir() string   { return filepath.Join(p.Root, "geom") }
func (p Paths) ModelsDir() string { return filepath.Join(p.Root, "models") }

// CandidateName is the per-candidate artifact base name.
func CandidateName(index int) string { return fmt.Sprintf("cand_%04d", index) }

func (p Paths) CandidatePNG(index int) string {
	return filepath.Join(p.ImgDir(), CandidateName(index)+".png")
}
func (p Paths) CandidatePDB(index int) string {
	return filepath.Join(p.GeomDir(), CandidateName(index)+".pdb")
}
func (p Paths) CandidateSDF(index int) string {
	return filepath.Join(p.GeomDir(), CandidateName(index)+".sdf")
}
func (p Paths) CandidatePDBQT(index int) string {
	return filepath.Join(p.GeomDir(), CandidateName(index)+".pdbqt")
}
func (p Paths) ModelFile(family string) string {
	return filepath.Join(p.ModelsDir(), family+".msgpack")
}
func (p Paths) ScatterPNG(family string) string {
	return filepath.Join(p.Root, "scatter_"+family+".png")
}
func (p Paths) PredictionsCSV(family string) string {
	return filepath.Join(p.Root, "predictions_"+family+".csv")
}

// EnsureDirs creates the output tree.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.ImgDir(), p.GeomDir(), p.ModelsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeIO, "create output directory").
				WithDetail("path=" + dir)
		}
	}
	return nil
}
