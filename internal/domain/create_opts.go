package domain

// CreateServerOpts holds the typed parameter set for a single server-create
// call. It is produced from the merged default+override parameters and
// passed through to the provider unchanged.
type CreateServerOpts struct {
	// Required
	Name    string
	Image   string // image ID
	Flavor  string // flavor ID
	KeyName string

	// Optional
	Metadata             map[string]string
	Files                map[string]string // path -> contents
	ReservationID        string
	MinCount             int
	MaxCount             int
	SecurityGroups       []string
	UserData             string // literal, never pre-encoded
	AvailabilityZone     string
	BlockDeviceMapping   map[string]string
	BlockDeviceMappingV2 []BlockDevice
	Networks             []NetworkAttachment
	SchedulerHints       map[string]any
	ConfigDrive          *bool
	DiskConfig           string
}

// NetworkAttachment is one network interface requested at create time.
type NetworkAttachment struct {
	NetID   string `json:"net-id,omitempty"`
	FixedIP string `json:"v4-fixed-ip,omitempty"`
	PortID  string `json:"port-id,omitempty"`
}

// BlockDevice describes one entry of a block_device_mapping_v2 request.
type BlockDevice struct {
	BootIndex           int    `json:"boot_index"`
	DeleteOnTermination bool   `json:"delete_on_termination"`
	DestinationType     string `json:"destination_type,omitempty"`
	SourceType          string `json:"source_type"`
	UUID                string `json:"uuid,omitempty"`
	VolumeSize          int    `json:"volume_size,omitempty"`
	DeviceType          string `json:"device_type,omitempty"`
	DiskBus             string `json:"disk_bus,omitempty"`
}
