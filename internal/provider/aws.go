package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	providerconfig "vmbroker/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const awsReadyStatus = string(types.InstanceStateNameRunning)

// ec2KeyAPI is the key-pair slice of the EC2 client, split out so the
// ensure reconciliation is testable without the network.
type ec2KeyAPI interface {
	ImportKeyPair(ctx context.Context, params *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error)
	DescribeKeyPairs(ctx context.Context, params *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error)
}

type ec2API interface {
	ec2KeyAPI
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// AWS provisions EC2 instances.
type AWS struct {
	client ec2API
	poll   PollConfig
}

// NewAWS creates an AWS adapter with static credentials.
func NewAWS(ctx context.Context, cfg providerconfig.AWSConfig) (*AWS, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWS{
		client: ec2.NewFromConfig(awsCfg),
		poll: PollConfig{
			Attempts: cfg.Poll.Attempts,
			Interval: time.Duration(cfg.Poll.IntervalSeconds) * time.Second,
		},
	}, nil
}

// Create runs one EC2 instance and blocks until it is running with a
// public IP address, or the readiness budget runs out.
func (p *AWS) Create(ctx context.Context, spec CreateSpec) (*Instance, error) {
	keyName, err := ensureKeyPair(ctx, p.client, spec.SSHPublicKey)
	if err != nil {
		return nil, err
	}

	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(spec.Image),
		InstanceType: types.InstanceType(spec.Size),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		KeyName:      aws.String(keyName),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeInstance,
				Tags: []types.Tag{
					{Key: aws.String("Name"), Value: aws.String(spec.Name)},
				},
			},
		},
	}
	if spec.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(spec.UserData)))
	}

	output, err := p.client.RunInstances(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run instance: %w", err)
	}
	if len(output.Instances) == 0 {
		return nil, fmt.Errorf("run instance returned no instances")
	}

	id := aws.ToString(output.Instances[0].InstanceId)
	return AwaitReady(ctx, id, p.poll, func(ctx context.Context) (*Instance, error) {
		return p.Describe(ctx, id)
	}, ReadyWhen(awsReadyStatus))
}

// Destroy terminates an instance; an instance that is already gone counts
// as destroyed.
func (p *AWS) Destroy(ctx context.Context, instanceID string) error {
	_, err := p.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		if strings.Contains(err.Error(), "InvalidInstanceID.NotFound") {
			return nil
		}
		return fmt.Errorf("failed to terminate instance: %w", err)
	}
	return nil
}

// Describe returns the uniform view of an EC2 instance.
func (p *AWS) Describe(ctx context.Context, instanceID string) (*Instance, error) {
	output, err := p.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		if strings.Contains(err.Error(), "InvalidInstanceID.NotFound") {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to describe instance: %w", err)
	}
	if len(output.Reservations) == 0 || len(output.Reservations[0].Instances) == 0 {
		return nil, ErrInstanceNotFound
	}

	instance := output.Reservations[0].Instances[0]
	aux := map[string]string{}
	if instance.State != nil {
		aux["status"] = string(instance.State.Name)
	}
	if instance.Placement != nil {
		aux["zone"] = aws.ToString(instance.Placement.AvailabilityZone)
	}
	return &Instance{
		ID:      aws.ToString(instance.InstanceId),
		Address: aws.ToString(instance.PublicIpAddress),
		Aux:     aux,
	}, nil
}

// ensureKeyPair imports the public key as an EC2 key pair. On a duplicate
// key conflict it reconciles by describing the existing pair instead of
// propagating the error.
func ensureKeyPair(ctx context.Context, api ec2KeyAPI, publicKey string) (string, error) {
	name := keyObjectName(publicKey)

	_, err := api.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(name),
		PublicKeyMaterial: []byte(publicKey),
	})
	if err == nil {
		return name, nil
	}
	if !strings.Contains(err.Error(), "InvalidKeyPair.Duplicate") {
		return "", fmt.Errorf("failed to import key pair: %w", err)
	}

	output, derr := api.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		KeyNames: []string{name},
	})
	if derr != nil || len(output.KeyPairs) == 0 {
		return "", fmt.Errorf("failed to import key pair: %w", err)
	}
	return aws.ToString(output.KeyPairs[0].KeyName), nil
}
