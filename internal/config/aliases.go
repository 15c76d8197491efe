package config

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dashboard-fill/internal/model"
)

// LoadAliases reads a metric alias file, a JSON or YAML object such as
// {"starting inventory": "beg. inventory"}. Keys and values are folded the
// same way extracted metrics are; pairs with an empty side are dropped. A
// missing file yields no aliases.
func LoadAliases(path string) (model.Aliases, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		zap.L().Info("config: metric alias file not found, no aliasing applied", zap.String("path", path))
		return model.Aliases{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "config: read metric aliases")
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "config: %s must be a JSON object", path)
	}

	out := make(model.Aliases, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		from, to := model.MetricKey(k), model.MetricKey(fmt.Sprint(v))
		if from == "" || to == "" {
			continue
		}
		out[from] = to
	}
	return out, nil
}
