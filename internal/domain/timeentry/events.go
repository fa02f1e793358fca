package timeentry

// EventEntryChanged is pushed on the live stream after every transition.
const EventEntryChanged = "time_entry.changed"

// TechnicianTopic is the stream topic of one technician's own entries.
func TechnicianTopic(technicianID string) string {
	return "technician:" + technicianID
}

// ShopTopic is the stream topic managers subscribe to for a whole shop.
func ShopTopic(shopID string) string {
	return "shop:" + shopID
}
