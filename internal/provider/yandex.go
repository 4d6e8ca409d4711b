package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vmbroker/internal/config"

	"github.com/yandex-cloud/go-genproto/yandex/cloud/compute/v1"
	"github.com/yandex-cloud/go-genproto/yandex/cloud/vpc/v1"
	ycsdk "github.com/yandex-cloud/go-sdk"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const yandexReadyStatus = "RUNNING"

// YandexCloud provisions Yandex Compute instances. Yandex has no size
// slugs, so the candidate size uses the "<cores>x<memory_gb>" shape
// notation, e.g. "2x4".
type YandexCloud struct {
	sdk        *ycsdk.SDK
	folderID   string
	zone       string
	username   string
	diskSizeGB int64
	poll       PollConfig
}

// NewYandexCloud creates a Yandex Cloud adapter authenticated by IAM token.
func NewYandexCloud(ctx context.Context, cfg config.YandexCloudConfig) (*YandexCloud, error) {
	sdk, err := ycsdk.Build(ctx, ycsdk.Config{
		Credentials: ycsdk.NewIAMTokenCredentials(cfg.IAMToken),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SDK: %w", err)
	}

	return &YandexCloud{
		sdk:        sdk,
		folderID:   cfg.FolderID,
		zone:       cfg.Zone,
		username:   cfg.Username,
		diskSizeGB: cfg.DiskSizeGB,
		poll: PollConfig{
			Attempts: cfg.Poll.Attempts,
			Interval: time.Duration(cfg.Poll.IntervalSeconds) * time.Second,
		},
	}, nil
}

// Create creates a VM and blocks until it is RUNNING with a NAT address,
// or the readiness budget runs out. The instance ID is taken from the
// create operation's metadata, so a machine that never becomes ready is
// still identifiable for caller-side cleanup.
func (p *YandexCloud) Create(ctx context.Context, spec CreateSpec) (*Instance, error) {
	cores, memoryGB, err := parseShape(spec.Size)
	if err != nil {
		return nil, err
	}

	subnetID, err := p.findSubnet(ctx)
	if err != nil {
		return nil, err
	}

	data, err := userData(spec, p.username)
	if err != nil {
		return nil, err
	}

	request := &compute.CreateInstanceRequest{
		FolderId:   p.folderID,
		Name:       spec.Name,
		ZoneId:     p.zone,
		PlatformId: "standard-v1",
		ResourcesSpec: &compute.ResourcesSpec{
			Cores:  cores,
			Memory: memoryGB * 1024 * 1024 * 1024,
		},
		BootDiskSpec: &compute.AttachedDiskSpec{
			AutoDelete: true,
			Disk: &compute.AttachedDiskSpec_DiskSpec_{
				DiskSpec: &compute.AttachedDiskSpec_DiskSpec{
					TypeId: "network-hdd",
					Size:   p.diskSizeGB * 1024 * 1024 * 1024,
					Source: &compute.AttachedDiskSpec_DiskSpec_ImageId{
						ImageId: spec.Image,
					},
				},
			},
		},
		NetworkInterfaceSpecs: []*compute.NetworkInterfaceSpec{
			{
				SubnetId: subnetID,
				PrimaryV4AddressSpec: &compute.PrimaryAddressSpec{
					OneToOneNatSpec: &compute.OneToOneNatSpec{
						IpVersion: compute.IpVersion_IPV4,
					},
				},
			},
		},
		Metadata: map[string]string{
			"user-data": data,
		},
	}

	pop, err := p.sdk.Compute().Instance().Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create VM: %w", err)
	}

	op, err := p.sdk.WrapOperation(pop, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap operation: %w", err)
	}
	meta, err := op.Metadata()
	if err != nil {
		return nil, fmt.Errorf("failed to get operation metadata: %w", err)
	}
	createMeta, ok := meta.(*compute.CreateInstanceMetadata)
	if !ok {
		return nil, fmt.Errorf("unexpected operation metadata type %T", meta)
	}

	id := createMeta.InstanceId
	return AwaitReady(ctx, id, p.poll, func(ctx context.Context) (*Instance, error) {
		return p.Describe(ctx, id)
	}, ReadyWhen(yandexReadyStatus))
}

// Destroy deletes a VM by ID; a VM that is already gone counts as
// destroyed.
func (p *YandexCloud) Destroy(ctx context.Context, instanceID string) error {
	pop, err := p.sdk.Compute().Instance().Delete(ctx, &compute.DeleteInstanceRequest{
		InstanceId: instanceID,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("failed to delete VM: %w", err)
	}

	op, err := p.sdk.WrapOperation(pop, nil)
	if err != nil {
		return fmt.Errorf("failed to wrap operation: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for delete: %w", err)
	}
	return nil
}

// Describe returns the uniform view of a Yandex Compute instance.
func (p *YandexCloud) Describe(ctx context.Context, instanceID string) (*Instance, error) {
	instance, err := p.sdk.Compute().Instance().Get(ctx, &compute.GetInstanceRequest{
		InstanceId: instanceID,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get VM: %w", err)
	}

	address := ""
	if len(instance.NetworkInterfaces) > 0 {
		if nat := instance.NetworkInterfaces[0].PrimaryV4Address.GetOneToOneNat(); nat != nil {
			address = nat.Address
		}
	}
	return &Instance{
		ID:      instance.Id,
		Address: address,
		Aux: map[string]string{
			"status": instance.Status.String(),
			"name":   instance.Name,
			"zone":   instance.ZoneId,
		},
	}, nil
}

// findSubnet finds a subnet in the adapter's zone.
func (p *YandexCloud) findSubnet(ctx context.Context) (string, error) {
	resp, err := p.sdk.VPC().Subnet().List(ctx, &vpc.ListSubnetsRequest{
		FolderId: p.folderID,
		PageSize: 100,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list subnets: %w", err)
	}
	for _, subnet := range resp.Subnets {
		if subnet.ZoneId == p.zone {
			return subnet.Id, nil
		}
	}
	return "", fmt.Errorf("no subnet found in zone %s", p.zone)
}

// parseShape parses the "<cores>x<memory_gb>" size notation.
func parseShape(size string) (cores, memoryGB int64, err error) {
	parts := strings.SplitN(size, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid shape %q: want <cores>x<memory_gb>", size)
	}
	cores, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil || cores <= 0 {
		return 0, 0, fmt.Errorf("invalid shape %q: bad core count", size)
	}
	memoryGB, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || memoryGB <= 0 {
		return 0, 0, fmt.Errorf("invalid shape %q: bad memory size", size)
	}
	return cores, memoryGB, nil
}
