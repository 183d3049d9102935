package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pulumi/pulumi-digitalocean/sdk/v4/go/digitalocean"
	"github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes"
	corev1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/core/v1"
	metav1 "github.com/pulumi/pulumi-kubernetes/sdk/v4/go/kubernetes/meta/v1"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

const (
	appName           = "bookstore"
	notificationTopic = "bookstore-notifications"
)

// stackSettings holds the per-stack knobs with their defaults applied
type stackSettings struct {
	region       string
	nodeSize     string
	nodeCount    int
	pageSize     string
	pageTTL      string
	adminEmails  string
	smtpHost     string
	smtpUser     string
	fromEmail    string
	mailWorkers  string
	jwtSecret    pulumi.StringOutput
	smtpPassword pulumi.StringOutput
}

func loadSettings(ctx *pulumi.Context) stackSettings {
	cfg := config.New(ctx, "")

	s := stackSettings{
		region:       withDefault(cfg.Get("region"), "blr1"),
		nodeSize:     withDefault(cfg.Get("nodeSize"), "s-2vcpu-4gb"),
		nodeCount:    cfg.GetInt("nodeCount"),
		pageSize:     withDefault(cfg.Get("catalogPageSize"), "12"),
		pageTTL:      withDefault(cfg.Get("catalogPageTTL"), "60"),
		adminEmails:  cfg.Get("adminEmails"),
		smtpHost:     cfg.Get("smtpHost"),
		smtpUser:     cfg.Get("smtpUser"),
		fromEmail:    withDefault(cfg.Get("fromEmail"), "noreply@bookstore.local"),
		mailWorkers:  withDefault(cfg.Get("mailWorkers"), "10"),
		jwtSecret:    cfg.RequireSecret("jwtSecret"),
		smtpPassword: cfg.GetSecret("smtpPassword"),
	}
	if s.nodeCount == 0 {
		s.nodeCount = 2
	}
	return s
}

func withDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		s := loadSettings(ctx)

		vpc, err := digitalocean.NewVpc(ctx, appName+"-vpc", &digitalocean.VpcArgs{
			Name:    pulumi.String(appName + "-vpc"),
			Region:  pulumi.String(s.region),
			IpRange: pulumi.String("10.20.0.0/16"),
		})
		if err != nil {
			return err
		}

		cluster, err := digitalocean.NewKubernetesCluster(ctx, appName+"-cluster", &digitalocean.KubernetesClusterArgs{
			Name:    pulumi.String(appName + "-cluster"),
			Region:  pulumi.String(s.region),
			Version: pulumi.String("1.31.9-do.2"),
			VpcUuid: vpc.ID(),
			NodePool: &digitalocean.KubernetesClusterNodePoolArgs{
				Name:      pulumi.String("default"),
				Size:      pulumi.String(s.nodeSize),
				NodeCount: pulumi.Int(s.nodeCount),
			},
		})
		if err != nil {
			return err
		}

		// Catalog, accounts, carts and orders
		database, err := newManagedCluster(ctx, "postgres", "pg", "15", "db-s-1vcpu-1gb", 1, s.region, vpc)
		if err != nil {
			return err
		}

		// Shared catalog page cache and the revoked-token list
		pageCache, err := newManagedCluster(ctx, "valkey", "valkey", "8", "db-s-1vcpu-1gb", 1, s.region, vpc)
		if err != nil {
			return err
		}

		// Notification events consumed by the mailer
		broker, err := newManagedCluster(ctx, "kafka", "kafka", "3.8", "db-s-2vcpu-2gb", 3, s.region, vpc)
		if err != nil {
			return err
		}

		k8sProvider, err := kubernetes.NewProvider(ctx, "k8s-provider", &kubernetes.ProviderArgs{
			Kubeconfig: cluster.KubeConfigs.Index(pulumi.Int(0)).RawConfig(),
		})
		if err != nil {
			return err
		}

		namespace, err := corev1.NewNamespace(ctx, appName+"-namespace", &corev1.NamespaceArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name: pulumi.String(appName),
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		// Keys match the environment variables read by the API and the mailer
		_, err = corev1.NewConfigMap(ctx, appName+"-config", &corev1.ConfigMapArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String(appName + "-config"),
				Namespace: namespace.Metadata.Name(),
			},
			Data: pulumi.StringMap{
				"DB_HOST":                  database.Host,
				"DB_PORT":                  pulumi.Sprintf("%v", database.Port),
				"DB_NAME":                  database.Database,
				"DB_USER":                  database.User,
				"DB_SSL_MODE":              pulumi.String("require"),
				"REDIS_HOST":               pageCache.Host,
				"REDIS_PORT":               pulumi.Sprintf("%v", pageCache.Port),
				"KAFKA_BROKERS":            pulumi.Sprintf("%v:%v", broker.Host, broker.Port),
				"KAFKA_NOTIFICATION_TOPIC": pulumi.String(notificationTopic),
				"KAFKA_CONSUMER_GROUP":     pulumi.String(appName + "-mailer"),
				"CATALOG_PAGE_SIZE":        pulumi.String(s.pageSize),
				"CATALOG_PAGE_TTL":         pulumi.String(s.pageTTL),
				"AUTH_ADMIN_EMAILS":        pulumi.String(s.adminEmails),
				"SMTP_HOST":                pulumi.String(s.smtpHost),
				"SMTP_USER":                pulumi.String(s.smtpUser),
				"FROM_EMAIL":               pulumi.String(s.fromEmail),
				"WORKER_MAX_WORKERS":       pulumi.String(s.mailWorkers),
				"LOG_LEVEL":                pulumi.String("info"),
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		_, err = corev1.NewSecret(ctx, appName+"-secret", &corev1.SecretArgs{
			Metadata: &metav1.ObjectMetaArgs{
				Name:      pulumi.String(appName + "-secret"),
				Namespace: namespace.Metadata.Name(),
			},
			StringData: pulumi.StringMap{
				"DB_PASSWORD":    database.Password,
				"REDIS_PASSWORD": pageCache.Password,
				"JWT_SECRET":     s.jwtSecret,
				"SMTP_PASSWORD":  s.smtpPassword,
			},
		}, pulumi.Provider(k8sProvider))
		if err != nil {
			return err
		}

		accessToken := os.Getenv("DIGITALOCEAN_ACCESS_TOKEN")
		if accessToken == "" {
			accessToken = config.New(ctx, "digitalocean").Get("token")
		}
		if accessToken != "" {
			if err := newRegistryAccess(ctx, namespace, accessToken, k8sProvider); err != nil {
				return err
			}
		}

		ctx.Export("clusterName", cluster.Name)
		ctx.Export("kubeconfig", cluster.KubeConfigs.Index(pulumi.Int(0)).RawConfig())
		ctx.Export("databaseHost", database.Host)
		ctx.Export("databasePort", database.Port)
		ctx.Export("cacheHost", pageCache.Host)
		ctx.Export("cachePort", pageCache.Port)
		ctx.Export("kafkaHost", broker.Host)
		ctx.Export("kafkaPort", broker.Port)
		ctx.Export("notificationTopic", pulumi.String(notificationTopic))
		ctx.Export("vpcId", vpc.ID())

		return nil
	})
}

// newManagedCluster provisions one DigitalOcean managed data store inside the VPC
func newManagedCluster(ctx *pulumi.Context, name, engine, version, size string, nodes int, region string, vpc *digitalocean.Vpc) (*digitalocean.DatabaseCluster, error) {
	return digitalocean.NewDatabaseCluster(ctx, appName+"-"+name, &digitalocean.DatabaseClusterArgs{
		Name:               pulumi.String(appName + "-" + name),
		Engine:             pulumi.String(engine),
		Version:            pulumi.String(version),
		Size:               pulumi.String(size),
		Region:             pulumi.String(region),
		NodeCount:          pulumi.Int(nodes),
		PrivateNetworkUuid: vpc.ID(),
	})
}

// newRegistryAccess lets the namespace's default service account pull images
// from the DigitalOcean container registry
func newRegistryAccess(ctx *pulumi.Context, namespace *corev1.Namespace, token string, provider *kubernetes.Provider) error {
	dockerConfig := map[string]interface{}{
		"auths": map[string]interface{}{
			"registry.digitalocean.com": map[string]interface{}{
				"username": token,
				"password": token,
				"auth":     base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", token, token))),
			},
		},
	}
	configJSON, err := json.Marshal(dockerConfig)
	if err != nil {
		return err
	}

	registrySecret, err := corev1.NewSecret(ctx, "registry-secret", &corev1.SecretArgs{
		Metadata: &metav1.ObjectMetaArgs{
			Name:      pulumi.String("regcred"),
			Namespace: namespace.Metadata.Name(),
		},
		Type: pulumi.String("kubernetes.io/dockerconfigjson"),
		Data: pulumi.StringMap{
			".dockerconfigjson": pulumi.String(base64.StdEncoding.EncodeToString(configJSON)),
		},
	}, pulumi.Provider(provider))
	if err != nil {
		return err
	}

	_, err = corev1.NewServiceAccount(ctx, "default-service-account", &corev1.ServiceAccountArgs{
		Metadata: &metav1.ObjectMetaArgs{
			Name:      pulumi.String("default"),
			Namespace: namespace.Metadata.Name(),
		},
		ImagePullSecrets: corev1.LocalObjectReferenceArray{
			&corev1.LocalObjectReferenceArgs{
				Name: registrySecret.Metadata.Name(),
			},
		},
	}, pulumi.Provider(provider), pulumi.DependsOn([]pulumi.Resource{registrySecret}))
	return err
}
