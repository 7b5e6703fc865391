// Package kube inspects the cost-management deployment through the
// Kubernetes API.
package kube

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

// Cluster implements boundary.Cluster.
type Cluster struct {
	client kubernetes.Interface
	config *rest.Config
	logger logrus.FieldLogger
}

var _ boundary.Cluster = (*Cluster)(nil)

// NewForKubeconfig builds a Cluster from a kubeconfig path, falling back to
// the in-cluster config when the path is empty.
func NewForKubeconfig(kubeconfig string, logger logrus.FieldLogger) (*Cluster, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, boundary.Config("load kubeconfig", err)
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, boundary.Config("create kubernetes client", err)
	}
	return &Cluster{client: client, config: cfg, logger: logger}, nil
}

// NewCluster wraps an existing clientset. Exec requires a non-nil config.
func NewCluster(client kubernetes.Interface, config *rest.Config, logger logrus.FieldLogger) *Cluster {
	return &Cluster{client: client, config: config, logger: logger}
}

// PodStatuses lists the pods in namespace matching selector.
func (c *Cluster) PodStatuses(ctx context.Context, namespace, selector string) ([]boundary.PodStatus, error) {
	pods, err := c.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return nil, classify("list pods in "+namespace, err)
	}

	statuses := make([]boundary.PodStatus, 0, len(pods.Items))
	for _, pod := range pods.Items {
		ready, readyContainers := checkPodStatus(pod)
		statuses = append(statuses, boundary.PodStatus{
			Name:            pod.Name,
			Phase:           string(pod.Status.Phase),
			Ready:           ready,
			ReadyContainers: readyContainers,
			TotalContainers: len(pod.Status.ContainerStatuses),
		})
	}
	return statuses, nil
}

// Exec runs cmd in a container and returns its output.
func (c *Cluster) Exec(ctx context.Context, namespace, pod, container string, cmd []string) (string, string, error) {
	if c.config == nil {
		return "", "", boundary.Config("exec", fmt.Errorf("no rest config available"))
	}
	req := c.client.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(pod).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: container,
			Command:   cmd,
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.config, "POST", req.URL())
	if err != nil {
		return "", "", boundary.Config("exec", err)
	}

	var stdout, stderr bytes.Buffer
	c.logger.Debugf("exec in %s/%s: %v", namespace, pod, cmd)
	err = executor.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return stdout.String(), stderr.String(), boundary.Logical(fmt.Sprintf("exec %v in %s/%s", cmd, namespace, pod), err)
	}
	return stdout.String(), stderr.String(), nil
}

// Unready returns the pods not reporting ready.
func Unready(statuses []boundary.PodStatus) []boundary.PodStatus {
	var unready []boundary.PodStatus
	for _, s := range statuses {
		if !s.Ready {
			unready = append(unready, s)
		}
	}
	return unready
}

// LogSummary writes one line per unready pod.
func LogSummary(logger logrus.FieldLogger, statuses []boundary.PodStatus) {
	unready := Unready(statuses)
	logger.Infof("%d/%d pods ready", len(statuses)-len(unready), len(statuses))
	for _, pod := range unready {
		if pod.TotalContainers == 0 {
			logger.Infof("Pod %s is pending", pod.Name)
			continue
		}
		logger.Infof("Pod %s has %d/%d ready containers", pod.Name, pod.ReadyContainers, pod.TotalContainers)
	}
}

func checkPodStatus(pod corev1.Pod) (bool, int) {
	if pod.Status.Phase != corev1.PodRunning {
		return false, 0
	}
	var unready int
	for _, status := range pod.Status.ContainerStatuses {
		if !status.Ready {
			unready++
		}
	}
	return unready == 0, len(pod.Status.ContainerStatuses) - unready
}

func classify(op string, err error) error {
	switch {
	case apierrors.IsUnauthorized(err), apierrors.IsForbidden(err):
		return boundary.Transport(op, err)
	case apierrors.IsNotFound(err), apierrors.IsBadRequest(err), apierrors.IsInvalid(err):
		return boundary.Logical(op, err)
	case apierrors.IsServerTimeout(err), apierrors.IsTimeout(err), apierrors.IsTooManyRequests(err),
		apierrors.IsServiceUnavailable(err), apierrors.IsInternalError(err):
		return boundary.Transient(op, err)
	}
	return boundary.Classify(op, err)
}
