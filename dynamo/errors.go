package dynamo

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrNotFound is returned by Getter when no item exists under the key.
	ErrNotFound = errors.New("dynamo: item not found")
	// ErrConditionFailed is returned when a conditional write is rejected,
	// e.g. an update of an item that does not exist.
	ErrConditionFailed = errors.New("dynamo: condition failed")
)

// mapWriteError translates SDK condition failures into ErrConditionFailed
// so callers don't import the SDK types package.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var cond *types.ConditionalCheckFailedException
	if errors.As(err, &cond) {
		return ErrConditionFailed
	}
	return err
}
