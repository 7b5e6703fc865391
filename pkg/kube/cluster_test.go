package kube

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

func newPod(name string, phase corev1.PodPhase, ready ...bool) *corev1.Pod {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "cost",
			Labels:    map[string]string{"app": "koku"},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
	for _, r := range ready {
		pod.Status.ContainerStatuses = append(pod.Status.ContainerStatuses, corev1.ContainerStatus{Ready: r})
	}
	return pod
}

func TestPodStatuses(t *testing.T) {
	client := fake.NewSimpleClientset(
		newPod("api", corev1.PodRunning, true, true),
		newPod("worker", corev1.PodRunning, true, false),
		newPod("listener", corev1.PodPending),
	)
	c := NewCluster(client, nil, logrus.New())

	statuses, err := c.PodStatuses(context.Background(), "cost", "app=koku")
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	byName := map[string]boundary.PodStatus{}
	for _, s := range statuses {
		byName[s.Name] = s
	}
	assert.True(t, byName["api"].Ready)
	assert.Equal(t, 2, byName["api"].ReadyContainers)
	assert.False(t, byName["worker"].Ready)
	assert.Equal(t, 1, byName["worker"].ReadyContainers)
	assert.Equal(t, 2, byName["worker"].TotalContainers)
	assert.False(t, byName["listener"].Ready)
	assert.Equal(t, "Pending", byName["listener"].Phase)

	assert.Len(t, Unready(statuses), 2)
	LogSummary(logrus.New(), statuses)
}

func TestPodStatusesSelector(t *testing.T) {
	other := newPod("other", corev1.PodRunning, true)
	other.Labels = map[string]string{"app": "unrelated"}
	client := fake.NewSimpleClientset(newPod("api", corev1.PodRunning, true), other)
	c := NewCluster(client, nil, logrus.New())

	statuses, err := c.PodStatuses(context.Background(), "cost", "app=koku")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "api", statuses[0].Name)
}

func TestExecWithoutConfig(t *testing.T) {
	c := NewCluster(fake.NewSimpleClientset(), nil, logrus.New())
	_, _, err := c.Exec(context.Background(), "cost", "api", "", []string{"true"})
	assert.Equal(t, boundary.KindConfig, boundary.KindOf(err))
}

func TestClassify(t *testing.T) {
	gr := schema.GroupResource{Resource: "pods"}
	tests := map[string]struct {
		err  error
		kind boundary.Kind
	}{
		"forbidden":   {err: apierrors.NewForbidden(gr, "x", errors.New("denied")), kind: boundary.KindTransport},
		"not found":   {err: apierrors.NewNotFound(gr, "x"), kind: boundary.KindLogical},
		"unavailable": {err: apierrors.NewServiceUnavailable("busy"), kind: boundary.KindTransient},
		"timeout":     {err: apierrors.NewServerTimeout(gr, "list", 1), kind: boundary.KindTransient},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.kind, boundary.KindOf(classify("op", tt.err)))
		})
	}
}
