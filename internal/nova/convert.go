package nova

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/params"
)

// ToCreateOpts converts a merged parameter bag to typed create options.
// Nil values are left at their zero value.
func ToCreateOpts(p params.Bag) (domain.CreateServerOpts, error) {
	var opts domain.CreateServerOpts

	for _, key := range sortedKeys(p) {
		v := p[key]
		if v == nil {
			continue
		}
		f, ok := schemaIndex[key]
		if !ok {
			return opts, params.Invalid(key, Where, "not a recognized server-create parameter")
		}
		if err := assign(&opts, f, v); err != nil {
			return opts, err
		}
	}

	return opts, nil
}

func assign(opts *domain.CreateServerOpts, f Field, v any) error {
	var err error
	switch f.Name {
	case "name":
		opts.Name, err = asString(f.Name, v)
	case "image":
		opts.Image, err = asString(f.Name, v)
	case "flavor":
		opts.Flavor, err = asString(f.Name, v)
	case "key_name":
		opts.KeyName, err = asString(f.Name, v)
	case "meta":
		opts.Metadata, err = asStringMap(f.Name, v)
	case "files":
		opts.Files, err = asStringMap(f.Name, v)
	case "reservation_id":
		opts.ReservationID, err = asString(f.Name, v)
	case "min_count":
		opts.MinCount, err = asInt(f.Name, v)
	case "max_count":
		opts.MaxCount, err = asInt(f.Name, v)
	case "security_groups":
		opts.SecurityGroups, err = asStringList(f.Name, v)
	case "userdata":
		opts.UserData, err = asString(f.Name, v)
	case "availability_zone":
		opts.AvailabilityZone, err = asString(f.Name, v)
	case "block_device_mapping":
		opts.BlockDeviceMapping, err = asStringMap(f.Name, v)
	case "block_device_mapping_v2":
		opts.BlockDeviceMappingV2, err = asBlockDevices(f.Name, v)
	case "nics":
		opts.Networks, err = asNICs(f.Name, v)
	case "scheduler_hints":
		m, ok := params.AsMap(v)
		if !ok {
			return mismatch(f.Name, "a mapping", v)
		}
		opts.SchedulerHints = m
	case "config_drive":
		b, ok := v.(bool)
		if !ok {
			return mismatch(f.Name, "a boolean", v)
		}
		opts.ConfigDrive = &b
	case "disk_config":
		opts.DiskConfig, err = asString(f.Name, v)
		if err == nil && opts.DiskConfig != "AUTO" && opts.DiskConfig != "MANUAL" {
			return params.Invalid(f.Name, Where, fmt.Sprintf("expected AUTO or MANUAL, got %q", opts.DiskConfig))
		}
	default:
		return params.Invalid(f.Name, Where, "no conversion for parameter")
	}
	return err
}

func mismatch(key, want string, v any) error {
	return params.Invalid(key, Where, fmt.Sprintf("expected %s, got %T", want, v))
}

// asString accepts strings and integral numbers. Flavor and image IDs are
// often written unquoted in YAML.
func asString(key string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case uint64:
		return strconv.FormatUint(s, 10), nil
	case float64:
		if s == math.Trunc(s) {
			return strconv.FormatInt(int64(s), 10), nil
		}
	}
	return "", mismatch(key, "a string", v)
}

func asInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	case string:
		i, err := strconv.Atoi(n)
		if err == nil {
			return i, nil
		}
	}
	return 0, mismatch(key, "an integer", v)
}

func asStringMap(key string, v any) (map[string]string, error) {
	m, ok := params.AsMap(v)
	if !ok {
		return nil, mismatch(key, "a mapping", v)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		switch val.(type) {
		case map[string]any, map[any]any, []any:
			return nil, params.Invalid(key, Where, fmt.Sprintf("value of %q must be a scalar", k))
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}

func asStringList(key string, v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss, nil
		}
		return nil, mismatch(key, "a list", v)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, mismatch(key, "a list of strings", v)
		}
		out = append(out, s)
	}
	return out, nil
}

func asNICs(key string, v any) ([]domain.NetworkAttachment, error) {
	if nics, ok := v.([]domain.NetworkAttachment); ok {
		return nics, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, mismatch(key, "a list", v)
	}
	out := make([]domain.NetworkAttachment, 0, len(list))
	for _, item := range list {
		m, ok := params.AsMap(item)
		if !ok {
			return nil, mismatch(key, "a list of mappings", v)
		}
		var nic domain.NetworkAttachment
		var err error
		if raw, ok := m["net-id"]; ok {
			if nic.NetID, err = asString(key, raw); err != nil {
				return nil, err
			}
		}
		if raw, ok := m["v4-fixed-ip"]; ok {
			if nic.FixedIP, err = asString(key, raw); err != nil {
				return nil, err
			}
		}
		if raw, ok := m["port-id"]; ok {
			if nic.PortID, err = asString(key, raw); err != nil {
				return nil, err
			}
		}
		out = append(out, nic)
	}
	return out, nil
}

func asBlockDevices(key string, v any) ([]domain.BlockDevice, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, mismatch(key, "a list", v)
	}
	out := make([]domain.BlockDevice, 0, len(list))
	for _, item := range list {
		m, ok := params.AsMap(item)
		if !ok {
			return nil, mismatch(key, "a list of mappings", v)
		}
		var bd domain.BlockDevice
		var err error
		for k, raw := range m {
			switch k {
			case "boot_index":
				bd.BootIndex, err = asInt(key, raw)
			case "volume_size":
				bd.VolumeSize, err = asInt(key, raw)
			case "delete_on_termination":
				b, ok := raw.(bool)
				if !ok {
					err = mismatch(key, "a boolean delete_on_termination", raw)
				}
				bd.DeleteOnTermination = b
			case "destination_type":
				bd.DestinationType, err = asString(key, raw)
			case "source_type":
				bd.SourceType, err = asString(key, raw)
			case "uuid":
				bd.UUID, err = asString(key, raw)
			case "device_type":
				bd.DeviceType, err = asString(key, raw)
			case "disk_bus":
				bd.DiskBus, err = asString(key, raw)
			default:
				err = params.Invalid(key, Where, fmt.Sprintf("unknown block device field %q", k))
			}
			if err != nil {
				return nil, err
			}
		}
		if bd.SourceType == "" {
			return nil, params.Invalid(key, Where, "every block device needs a source_type")
		}
		out = append(out, bd)
	}
	return out, nil
}

func sortedKeys(m params.Bag) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
