package models

import "time"

// Firmware represents one calibration file record from the remote catalog.
type Firmware struct {
	ID        int       `json:"id"`         // Unique identifier of the record
	Brand     string    `json:"brand"`      // Vehicle brand
	Model     string    `json:"model"`      // Vehicle model
	ECUType   string    `json:"ecu_type"`   // ECU family the file targets
	HWNumber  string    `json:"hw_number"`  // Hardware number of the ECU
	SWNumber  string    `json:"sw_number"`  // Software number of the calibration
	Price     float64   `json:"price"`      // Base price before user coefficient
	FilePath  string    `json:"file_path"`  // Storage path on the server side
	CreatedAt time.Time `json:"created_at"` // Timestamp of catalog insertion
}

// Order represents a single tuning purchase. Status and stage are free-form
// strings owned by the server and are not validated locally.
type Order struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	FirmwareID int       `json:"firmware_id"`
	Price      float64   `json:"price"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage"` // tuning tier: stage1, stage2, stage3
	CreatedAt  time.Time `json:"created_at"`
	User       *User     `json:"user,omitempty"`
	Firmware   *Firmware `json:"firmware,omitempty"`
}

// StaffMember is an access-control identity of the admin panel itself.
type StaffMember struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"` // "admin" or "operator"
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats is the aggregate snapshot recomputed server-side on every
// request.
type DashboardStats struct {
	TotalUsers     int     `json:"total_users"`
	TotalFirmwares int     `json:"total_firmwares"`
	TotalOrders    int     `json:"total_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
	OrdersToday    int     `json:"orders_today"`
	RevenueToday   float64 `json:"revenue_today"`
	NewUsersToday  int     `json:"new_users_today"`
}
