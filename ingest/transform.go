package ingest

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hippocampus-io/secload/errors"
)

// factDocument is the shape validation for company fact files: the document
// must carry an entity name and a non-empty facts object.
type factDocument struct {
	EntityName *string                    `json:"entityName"`
	Facts      map[string]json.RawMessage `json:"facts"`
}

// FactTransformer transforms a single-file company facts task. The payload
// is the raw file contents, untouched, so the stored document is
// byte-identical to the source. Counts one progress unit per success.
func FactTransformer(task SourceTask) Outcome {
	raw, err := os.ReadFile(task.PrimaryFile)
	if err != nil {
		return Outcome{
			Key:    task.Key,
			Reason: SkipMalformedPrimary,
			Err:    errors.Wrap(err, "read primary"),
		}
	}

	var doc factDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Outcome{
			Key:    task.Key,
			Reason: SkipMalformedPrimary,
			Err:    errors.Wrap(err, "corrupted JSON"),
		}
	}
	if doc.EntityName == nil || len(doc.Facts) == 0 {
		return Outcome{
			Key:    task.Key,
			Reason: SkipMalformedPrimary,
			Err:    errors.New("invalid JSON structure: missing entityName or facts"),
		}
	}

	return Outcome{
		Key: task.Key,
		Record: &Record{
			Key:        task.Key,
			Payload:    string(raw),
			ProducedAt: time.Now().UTC(),
		},
		Units: 1,
	}
}

// document is a parsed JSON object whose values stay raw until a field needs
// merging. Re-marshaling a map sorts its keys, which is what makes the
// merged payload byte-identical across runs.
type document map[string]json.RawMessage

// SubmissionTransformer transforms a primary submissions document plus zero
// or more chunk files. Chunks are applied in the task's (lexicographic)
// order: every list field present in both filings.recent and the chunk has
// the chunk's list appended; fields absent from the base are ignored.
// Counts every file it consumed as a progress unit, including on failure.
func SubmissionTransformer(task SourceTask) Outcome {
	units := 1

	raw, err := os.ReadFile(task.PrimaryFile)
	if err != nil {
		return Outcome{Key: task.Key, Reason: SkipMalformedPrimary, Units: units,
			Err: errors.Wrap(err, "read primary")}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Outcome{Key: task.Key, Reason: SkipMalformedPrimary, Units: units,
			Err: errors.Wrap(err, "corrupted JSON")}
	}

	filingsRaw, ok := doc["filings"]
	if !ok {
		return Outcome{Key: task.Key, Reason: SkipMalformedPrimary, Units: units,
			Err: errors.New("invalid structure: missing filings")}
	}
	var filings document
	if err := json.Unmarshal(filingsRaw, &filings); err != nil {
		return Outcome{Key: task.Key, Reason: SkipMalformedPrimary, Units: units,
			Err: errors.Wrap(err, "parse filings")}
	}
	recentRaw, ok := filings["recent"]
	if !ok {
		return Outcome{Key: task.Key, Reason: SkipMalformedPrimary, Units: units,
			Err: errors.New("invalid structure: missing filings.recent")}
	}
	var recent document
	if err := json.Unmarshal(recentRaw, &recent); err != nil {
		return Outcome{Key: task.Key, Reason: SkipMalformedPrimary, Units: units,
			Err: errors.Wrap(err, "parse filings.recent")}
	}

	for _, chunkPath := range task.ChunkFiles {
		units++
		if err := mergeChunk(recent, chunkPath); err != nil {
			return Outcome{Key: task.Key, Reason: SkipChunkError, Units: units,
				Err: errors.Wrapf(err, "merge chunk %s", chunkPath)}
		}
	}

	payload, err := serializeMerged(doc, filings, recent)
	if err != nil {
		return Outcome{Key: task.Key, Reason: SkipMalformedPrimary, Units: units,
			Err: errors.Wrap(err, "serialize merged document")}
	}

	return Outcome{
		Key: task.Key,
		Record: &Record{
			Key:        task.Key,
			Payload:    payload,
			ProducedAt: time.Now().UTC(),
		},
		Units: units,
	}
}

// mergeChunk applies one chunk file onto the accumulated recent index.
// Only fields that exist in the base and are lists on both sides are merged;
// everything else in the chunk is ignored, not created.
func mergeChunk(recent document, chunkPath string) error {
	raw, err := os.ReadFile(chunkPath)
	if err != nil {
		return errors.Wrap(err, "read chunk")
	}

	var chunk document
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return errors.Wrap(err, "corrupted chunk JSON")
	}

	for field, chunkValue := range chunk {
		baseValue, ok := recent[field]
		if !ok {
			continue
		}

		var baseList, chunkList []json.RawMessage
		if err := json.Unmarshal(baseValue, &baseList); err != nil {
			continue // base field is not a list
		}
		if err := json.Unmarshal(chunkValue, &chunkList); err != nil {
			continue // chunk field is not a list
		}

		merged, err := json.Marshal(append(baseList, chunkList...))
		if err != nil {
			return errors.Wrapf(err, "re-encode field %s", field)
		}
		recent[field] = merged
	}

	return nil
}

// serializeMerged folds the merged recent index back into the primary
// document and marshals it. Map keys are sorted at each re-marshaled level,
// so the output is deterministic for a fixed primary + chunk set.
func serializeMerged(doc, filings, recent document) (string, error) {
	recentJSON, err := json.Marshal(recent)
	if err != nil {
		return "", err
	}
	filings["recent"] = recentJSON

	filingsJSON, err := json.Marshal(filings)
	if err != nil {
		return "", err
	}
	doc["filings"] = filingsJSON

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(docJSON), nil
}
