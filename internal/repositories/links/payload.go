package links

import (
	"reflect"

	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/fxamacker/cbor/v2"
)

// Payload snapshots are stored as deterministic CBOR.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("links: CBOR encoder initialization failed: " + err.Error())
	}

	// Form data is consumed as JSON later, so nested maps must come back
	// as map[string]any.
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("links: CBOR decoder initialization failed: " + err.Error())
	}
}

func encodePayload(s *models.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return encMode.Marshal(s)
}

func decodePayload(b []byte) (*models.Snapshot, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var s models.Snapshot
	if err := decMode.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
