package domain

// Status 定义了订单的生命周期状态，数值与对外接口中的状态码一致。
// 状态之间没有强制的流转图，由管理员通过状态更新接口显式设置。
type Status int

const (
	StatusPending    Status = 1 // 待处理
	StatusInProgress Status = 2 // 处理中
	StatusDelivered  Status = 3 // 已送达
	StatusCancelled  Status = 4 // 已取消
)

var statusNames = map[Status]string{
	StatusPending:    "PENDING",
	StatusInProgress: "IN_PROGRESS",
	StatusDelivered:  "DELIVERED",
	StatusCancelled:  "CANCELLED",
}

// ParseStatus 将整数状态码转换为 Status，未知状态码返回 ErrInvalidInput。
func ParseStatus(code int) (Status, error) {
	s := Status(code)
	if _, ok := statusNames[s]; !ok {
		return 0, InvalidInput("invalid status value %d", code)
	}
	return s, nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// DeliveryMethod 配送方式
type DeliveryMethod int

const (
	DeliveryDriveThru    DeliveryMethod = 1
	DeliveryOnHand       DeliveryMethod = 2
	DeliveryHomeDelivery DeliveryMethod = 3
)

// Valid 判断配送方式是否为已知取值。
func (m DeliveryMethod) Valid() bool {
	return m >= DeliveryDriveThru && m <= DeliveryHomeDelivery
}

func (m DeliveryMethod) String() string {
	switch m {
	case DeliveryDriveThru:
		return "DRIVE_THRU"
	case DeliveryOnHand:
		return "ON_HAND"
	case DeliveryHomeDelivery:
		return "HOME_DELIVERY"
	default:
		return "UNKNOWN"
	}
}
