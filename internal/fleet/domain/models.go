package domain

import "time"

type Car struct {
	ID           int64  `json:"id"`
	LicensePlate string `json:"license_plate"`
	DriverID     *int64 `json:"driver_id"`
}

type Driver struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Position is immutable once created. Date is assigned by the server
// at ingestion start; Address stays empty when enrichment fails.
type Position struct {
	ID        int64     `json:"id"`
	CarID     int64     `json:"car_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Date      time.Time `json:"date"`
	Address   string    `json:"address"`
}
