package fotoo

import "fmt"

// canStartProcessing checks whether a processing attempt may claim an asset.
// pending and failed records are claimable (failed via the retry edge);
// a record already in processing is not, which is the guard against
// duplicate queue delivery.
func canStartProcessing(status AssetStatus) (bool, error) {
	switch status {
	case AssetStatusPending, AssetStatusFailed:
		return true, nil
	case AssetStatusProcessing:
		return false, fmt.Errorf("%w (status: %s)", ErrAlreadyProcessing, status)
	case AssetStatusProcessed:
		// Reprocessing a finished asset is allowed; it derives fresh keys.
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown status %s", ErrInvalidStatusTransition, status)
	}
}

// canServeDerived checks whether derived artifacts may be served for an
// asset in the given state.
func canServeDerived(status AssetStatus) (bool, error) {
	switch status {
	case AssetStatusProcessed:
		return true, nil
	case AssetStatusPending, AssetStatusProcessing:
		return false, fmt.Errorf("%w: asset is not processed yet (status: %s)", ErrAssetNotReady, status)
	case AssetStatusFailed:
		return false, fmt.Errorf("%w: asset processing failed (status: %s)", ErrAssetNotReady, status)
	default:
		return false, fmt.Errorf("%w: unknown status %s", ErrInvalidStatusTransition, status)
	}
}
