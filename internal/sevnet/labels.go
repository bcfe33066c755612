package sevnet

import (
	"bufio"
	"os"
	"strings"

	"github.com/sevnet/sevnet-go/internal/errors"
)

// DefaultLabels is the fixed, ordered label set the severity model was
// trained with. The index-to-label mapping is part of the model contract and
// must not be reordered without retraining.
var DefaultLabels = []string{"minor", "moderate", "severe"}

// loadLabels populates Settings.SevNet.Labels from either the built-in label
// set or an external label file.
func (sn *SevNet) loadLabels() error {
	if sn.Settings.SevNet.LabelPath == "" {
		sn.Settings.SevNet.Labels = append([]string(nil), DefaultLabels...)
		return nil
	}
	return sn.loadExternalLabels()
}

// loadExternalLabels reads one label per line from the configured label file.
func (sn *SevNet) loadExternalLabels() error {
	labelPath := expandPath(sn.Settings.SevNet.LabelPath)

	file, err := os.Open(labelPath) //nolint:gosec // G304: labelPath is from application settings
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("label_path", labelPath).
			Build()
	}
	defer func() {
		if err := file.Close(); err != nil {
			GetLogger().Warn("Failed to close label file", "path", labelPath, "error", err)
		}
	}()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			labels = append(labels, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.New(err).
			Category(errors.CategoryLabelLoad).
			Context("label_path", labelPath).
			Build()
	}

	if len(labels) == 0 {
		return errors.Newf("label file %s contains no labels", labelPath).
			Category(errors.CategoryLabelLoad).
			Build()
	}

	sn.Settings.SevNet.Labels = labels
	return nil
}
