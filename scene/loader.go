package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"deferred-renderer/gpu"
	"deferred-renderer/internal/logger"
	"deferred-renderer/math"
)

// Instance is one mesh read from a model file, placed in the world.
type Instance struct {
	Mesh      *Mesh
	Material  *Material
	Transform math.Mat4
}

// LoadModels loads a glTF (.gltf, .glb) or Wavefront (.obj) file, choosing
// the reader from the extension.
func LoadModels(ctx gpu.Context, path string) ([]*Model, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return LoadGLTF(ctx, path)
	case ".obj":
		return LoadOBJ(ctx, path)
	}
	return nil, fmt.Errorf("model %q: unsupported file type", path)
}

// upload turns instances into Models. On failure every Model created so
// far is deleted.
func upload(ctx gpu.Context, path string, instances []Instance) ([]*Model, error) {
	models := make([]*Model, 0, len(instances))
	for _, in := range instances {
		m, err := NewModel(ctx, in.Mesh, in.Material)
		if err != nil {
			for _, done := range models {
				done.Delete()
			}
			return nil, fmt.Errorf("model %q: %w", path, err)
		}
		m.Transform = in.Transform
		models = append(models, m)
	}
	logger.Log.Debug("model loaded", zap.String("path", path), zap.Int("models", len(models)))
	return models, nil
}
