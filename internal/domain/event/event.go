// Package event defines the typed event table carried over the internal bus (SPEC_FULL §6).
// Every event has a named Go type for its payload; handlers type-assert (or, for the common
// case, use the generic Subscribe helper in internal/eventbus) rather than poking at an
// untyped map the way the original Python event bodies did.
package event

import "github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"

// Type is the tag carried by every Event.
type Type string

const (
	TypeStartupComplete         Type = "STARTUP_COMPLETE"
	TypeSendToCloud             Type = "SEND_TO_CLOUD"
	TypeBrandInfoUpdated        Type = "BRAND_INFO_UPDATED"
	TypeUIModelUpdated          Type = "UI_MODEL_UPDATED"
	TypeNewPlanogramAvailable   Type = "NEW_PLANOGRAM_AVAILABLE"
	TypeNewPlanogramApply       Type = "NEW_PLANOGRAM_APPLY"
	TypeNewPlanogramReject      Type = "NEW_PLANOGRAM_REJECT"
	TypePlanogramUpdateDone     Type = "PLANOGRAM_UPDATE_DONE"
	TypeGetPlanogram            Type = "GET_PLANOGRAM"
	TypePlanogramIsUpToDate     Type = "PLANOGRAM_IS_UP_TO_DATE"
	TypePlanogramUpdateFailed   Type = "PLANOGRAM_UPDATE_FAILED"
	TypeReservationCompleted    Type = "RESERVATION_COMPLETED"
	TypePurchaseFinished        Type = "PURCHASE_FINISHED"
	TypeBeginTransactionRequest Type = "BEGIN_TRANSACTION_REQUEST"
	TypeBeginTransactionResp    Type = "BEGIN_TRANSACTION_RESPONSE"
	TypeMachineStateChanged     Type = "MACHINE_STATE_CHANGED"
	TypeDispensingStatus        Type = "DISPENSING_STATUS"
	TypeHumanDetected           Type = "HUMAN_DETECTED"
	TypeHWDispenserIsReady      Type = "HW_DISPENSER_IS_READY"
	TypeDoorStateChanged        Type = "DOOR_STATE_CHANGED"
)

// PlanogramRejectReason is the reason code carried by NewPlanogramAvailableBody when staging
// failed reservation validation.
type PlanogramRejectReason string

const (
	ReasonNone                          PlanogramRejectReason = ""
	ReasonReservedProductAbsent         PlanogramRejectReason = "RESERVED_PRODUCT_ABSENT"
	ReasonReservedProductOccupiesLess   PlanogramRejectReason = "RESERVED_PRODUCT_OCCUPIES_LESS_SLOTS"
)

// Event is the envelope dispatched by the bus. Handlers receive the Type and must know, by
// convention of the Type, how to assert Body to the corresponding *Body struct below.
type Event struct {
	Type Type
	Body any
}

type SendToCloudBody struct {
	API  string
	Data any
}

type NewPlanogramAvailableBody struct {
	Status bool
	Reason PlanogramRejectReason
}

type ReservationCompletedBody struct {
	TransactionID string
	Status        model.ReservationCompletionStatus
}

type PurchaseFinishedBody struct {
	CartID int
}

type BeginTransactionRequestBody struct {
	CartID int
}

type BeginTransactionResponseBody struct {
	CartID  int
	Success bool
}

type MachineStateChangedBody struct {
	State model.MachineState
}

type DispensingStatusBody struct {
	CartID    int
	UnitID    int
	Location  int
	VariantID int
	Status    model.DispensingStatus
}

type HumanDetectedBody struct {
	DisplayID int
	ProfileID string
}

type DoorStateChangedBody struct {
	Open bool
}
