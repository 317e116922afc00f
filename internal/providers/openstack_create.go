package providers

import (
	"encoding/base64"
	"sort"
	"strconv"
	"strings"

	"nathanbeddoewebdev/oshost/internal/domain"

	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/servers"
)

// createOpts renders a domain.CreateServerOpts into a compute create body.
// The embedded servers.CreateOpts carries the fields gophercloud models
// directly; the rest are written into the body by ToServerCreateMap.
type createOpts struct {
	servers.CreateOpts

	userData       string
	keyName        string
	minCount       int
	maxCount       int
	reservationID  string
	diskConfig     string
	blockDevices   []domain.BlockDevice
	legacyBDM      map[string]string
	schedulerHints map[string]any
}

func buildCreateOpts(opts domain.CreateServerOpts) *createOpts {
	co := &createOpts{
		CreateOpts: servers.CreateOpts{
			Name:             opts.Name,
			ImageRef:         opts.Image,
			FlavorRef:        opts.Flavor,
			SecurityGroups:   opts.SecurityGroups,
			AvailabilityZone: opts.AvailabilityZone,
			Metadata:         opts.Metadata,
			ConfigDrive:      opts.ConfigDrive,
		},
		userData:       opts.UserData,
		keyName:        opts.KeyName,
		minCount:       opts.MinCount,
		maxCount:       opts.MaxCount,
		reservationID:  opts.ReservationID,
		diskConfig:     opts.DiskConfig,
		blockDevices:   opts.BlockDeviceMappingV2,
		legacyBDM:      opts.BlockDeviceMapping,
		schedulerHints: opts.SchedulerHints,
	}

	if len(opts.Networks) > 0 {
		nets := make([]servers.Network, 0, len(opts.Networks))
		for _, n := range opts.Networks {
			nets = append(nets, servers.Network{UUID: n.NetID, FixedIP: n.FixedIP, Port: n.PortID})
		}
		co.Networks = nets
	}

	if len(opts.Files) > 0 {
		paths := make([]string, 0, len(opts.Files))
		for p := range opts.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			co.Personality = append(co.Personality, &servers.File{Path: p, Contents: []byte(opts.Files[p])})
		}
	}

	return co
}

// ToServerCreateMap implements servers.CreateOptsBuilder.
func (o *createOpts) ToServerCreateMap() (map[string]any, error) {
	body, err := o.CreateOpts.ToServerCreateMap()
	if err != nil {
		return nil, err
	}
	server, _ := body["server"].(map[string]any)
	if server == nil {
		server = map[string]any{}
		body["server"] = server
	}

	if o.userData != "" {
		server["user_data"] = base64.StdEncoding.EncodeToString([]byte(o.userData))
	}
	if o.keyName != "" {
		server["key_name"] = o.keyName
	}
	if o.minCount > 0 {
		server["min_count"] = o.minCount
	}
	if o.maxCount > 0 {
		server["max_count"] = o.maxCount
	}
	if o.reservationID != "" {
		server["return_reservation_id"] = true
		server["reservation_id"] = o.reservationID
	}
	if o.diskConfig != "" {
		server["OS-DCF:diskConfig"] = o.diskConfig
	}
	if len(o.blockDevices) > 0 {
		server["block_device_mapping_v2"] = o.blockDevices
	}
	if len(o.legacyBDM) > 0 {
		server["block_device_mapping"] = legacyBlockDeviceMapping(o.legacyBDM)
	}
	if len(o.schedulerHints) > 0 {
		body["os:scheduler_hints"] = o.schedulerHints
	}

	return body, nil
}

// legacyBlockDeviceMapping converts {"vda": "<id>:<type>:<size>:<delete>"}
// into the list form of the v1 block device mapping. Omitted fields are
// left out of the entry.
func legacyBlockDeviceMapping(bdm map[string]string) []map[string]any {
	devices := make([]string, 0, len(bdm))
	for d := range bdm {
		devices = append(devices, d)
	}
	sort.Strings(devices)

	out := make([]map[string]any, 0, len(devices))
	for _, device := range devices {
		entry := map[string]any{"device_name": device}
		parts := strings.Split(bdm[device], ":")

		if len(parts) > 0 && parts[0] != "" {
			id := parts[0]
			if len(parts) > 1 && parts[1] == "snap" {
				entry["snapshot_id"] = id
			} else {
				entry["volume_id"] = id
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if size, err := strconv.Atoi(parts[2]); err == nil {
				entry["volume_size"] = size
			}
		}
		if len(parts) > 3 {
			entry["delete_on_termination"] = parts[3] == "1" || strings.EqualFold(parts[3], "true")
		}
		out = append(out, entry)
	}
	return out
}
