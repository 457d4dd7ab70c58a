package ec2

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/instancectl/internal/compute"
)

type attributeSetter func(input *ec2.ModifyInstanceAttributeInput, value any) error

// attributeSetters maps the modifiable attribute names, in EC2 spelling,
// to the input field that carries them.
var attributeSetters = map[string]attributeSetter{
	"instanceType": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		s, err := stringValue(v)
		in.InstanceType = &types.AttributeValue{Value: aws.String(s)}
		return err
	},
	"kernel": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		s, err := stringValue(v)
		in.Kernel = &types.AttributeValue{Value: aws.String(s)}
		return err
	},
	"ramdisk": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		s, err := stringValue(v)
		in.Ramdisk = &types.AttributeValue{Value: aws.String(s)}
		return err
	},
	"userData": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		s, err := stringValue(v)
		in.UserData = &types.BlobAttributeValue{Value: []byte(s)}
		return err
	},
	"instanceInitiatedShutdownBehavior": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		s, err := stringValue(v)
		in.InstanceInitiatedShutdownBehavior = &types.AttributeValue{Value: aws.String(s)}
		return err
	},
	"disableApiTermination": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		b, err := boolValue(v)
		in.DisableApiTermination = &types.AttributeBooleanValue{Value: aws.Bool(b)}
		return err
	},
	"sourceDestCheck": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		b, err := boolValue(v)
		in.SourceDestCheck = &types.AttributeBooleanValue{Value: aws.Bool(b)}
		return err
	},
	"ebsOptimized": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		b, err := boolValue(v)
		in.EbsOptimized = &types.AttributeBooleanValue{Value: aws.Bool(b)}
		return err
	},
	"groupSet": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		groups, err := listValue(v)
		in.Groups = groups
		return err
	},
	"blockDeviceMapping": func(in *ec2.ModifyInstanceAttributeInput, v any) error {
		mappings, err := deleteOnTerminationValue(v)
		in.BlockDeviceMappings = mappings
		return err
	},
}

func modifyInput(id, attribute string, value any) (*ec2.ModifyInstanceAttributeInput, error) {
	set, ok := attributeSetters[attribute]
	if !ok {
		return nil, invalidParameter("unsupported instance attribute %q", attribute)
	}
	input := &ec2.ModifyInstanceAttributeInput{InstanceId: aws.String(id)}
	if err := set(input, value); err != nil {
		return nil, invalidParameter("invalid value for %s: %v", attribute, err)
	}
	return input, nil
}

func invalidParameter(format string, args ...any) error {
	return &compute.APIError{
		Code:       "InvalidParameterValue",
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

func stringValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool, int, int32, int64, float64:
		return fmt.Sprint(t), nil
	default:
		return "", fmt.Errorf("expected a scalar, got %T", v)
	}
}

func boolValue(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(t)
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}

// listValue accepts a list or a comma separated string.
func listValue(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []string:
		return slices.Clone(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, err := stringValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}

// deleteOnTerminationValue parses "/dev/sda1=true" or {"/dev/sda1": true}
// into DeleteOnTermination updates.
func deleteOnTerminationValue(v any) ([]types.InstanceBlockDeviceMappingSpecification, error) {
	flags := map[string]any{}
	parse := func(s string) error {
		for _, part := range strings.Split(s, ",") {
			device, flag, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok {
				return fmt.Errorf("expected device=bool, got %q", part)
			}
			flags[device] = flag
		}
		return nil
	}
	switch t := v.(type) {
	case string:
		if err := parse(t); err != nil {
			return nil, err
		}
	case []string:
		if err := parse(strings.Join(t, ",")); err != nil {
			return nil, err
		}
	case []any:
		for _, item := range t {
			if err := parse(fmt.Sprint(item)); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		flags = t
	default:
		return nil, fmt.Errorf("expected device=bool, got %T", v)
	}

	devices := make([]string, 0, len(flags))
	for device := range flags {
		devices = append(devices, device)
	}
	slices.Sort(devices)

	out := make([]types.InstanceBlockDeviceMappingSpecification, 0, len(devices))
	for _, device := range devices {
		b, err := boolValue(flags[device])
		if err != nil {
			return nil, err
		}
		out = append(out, types.InstanceBlockDeviceMappingSpecification{
			DeviceName: aws.String(device),
			Ebs:        &types.EbsInstanceBlockDeviceSpecification{DeleteOnTermination: aws.Bool(b)},
		})
	}
	return out, nil
}
